// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlag(value string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (txt, csv, markdown, json)",
		Value:   value,
	}
}

func emailFlag() *cli.StringFlag {
	return &cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"}
}

func otpFlag() *cli.StringFlag {
	return &cli.StringFlag{Name: "otp", Usage: "One-time code from the verification email"}
}

func idArg() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "id"}}
}

// setupCommand initializes local state
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and the local database",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a config file with the default settings",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing config file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "migrations",
				Usage: "Show applied migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration",
					},
				},
				Action: r.SetupMigrations,
			},
		},
	}
}

// authCommand handles account flows
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Log in, sign up and manage your mazeed account",
		Before: r.Open,
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with email and password",
				Flags: []cli.Flag{
					emailFlag(),
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", Sources: cli.EnvVars("MAZEED_PASSWORD")},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "signup",
				Usage: "Create an account; a verification code is emailed",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "first-name", Usage: "First name"},
					&cli.StringFlag{Name: "last-name", Usage: "Last name"},
					emailFlag(),
					&cli.StringFlag{Name: "phone", Usage: "Phone number, digits only"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password"},
					&cli.StringFlag{Name: "confirm-password", Usage: "Password again"},
				},
				Action: r.AuthSignup,
			},
			{
				Name:   "verify-otp",
				Usage:  "Verify the code emailed after sign up",
				Flags:  []cli.Flag{emailFlag(), otpFlag()},
				Action: r.AuthVerifyOTP,
			},
			{
				Name:   "forgot-password",
				Usage:  "Email a password reset code",
				Flags:  []cli.Flag{emailFlag()},
				Action: r.AuthForgotPassword,
			},
			{
				Name:  "reset-password",
				Usage: "Set a new password with the emailed code",
				Flags: []cli.Flag{
					emailFlag(),
					otpFlag(),
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "New password"},
					&cli.StringFlag{Name: "confirm-password", Usage: "New password again"},
				},
				Action: r.AuthResetPassword,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored credential",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show the logged in account",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// connectCommand links a platform account
func connectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "connect",
		Usage:     "Connect Instagram (imports content), YouTube or TikTok in the browser",
		ArgsUsage: "instagram|youtube|tiktok",
		Before:    r.Open,
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "platform"},
		},
		Action: r.Connect,
	}
}

// contentCommand browses imported Instagram content
func contentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "content",
		Usage:  "List and select imported Instagram content",
		Before: r.Open,
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List imported content",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "date-range", Usage: "all, 30days, 90days, 6months or year", Value: "all"},
					&cli.StringFlag{Name: "type", Usage: "all, reels or posts", Value: "all"},
					&cli.StringFlag{Name: "performance", Usage: "all, high, medium or low", Value: "all"},
					&cli.BoolFlag{Name: "selected", Usage: "Only list selected items"},
					formatFlag("txt"),
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write to a file instead of stdout"},
				},
				Action: r.ContentList,
			},
			{
				Name:      "select",
				Usage:     "Replace the selection with the given content ids",
				ArgsUsage: "<id>...",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "Select every imported item"},
				},
				Action: r.ContentSelect,
			},
			{
				Name:   "clear",
				Usage:  "Clear the selection",
				Action: r.ContentClear,
			},
		},
	}
}

// jobsCommand submits and follows transformation jobs
func jobsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "jobs",
		Usage:  "Submit, follow, download and upload transformations",
		Before: r.Open,
		Commands: []*cli.Command{
			{
				Name:  "submit",
				Usage: "Transform the selected content for a platform",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "platform", Aliases: []string{"p"}, Usage: "YouTube or TikTok", Required: true},
					&cli.StringFlag{Name: "aspect", Usage: "9:16 or original", Value: "9:16"},
					&cli.StringFlag{Name: "watermark", Usage: "Watermark text; empty disables the watermark"},
					&cli.StringFlag{Name: "watermark-position", Usage: "Watermark position", Value: "bottom-right"},
					&cli.BoolFlag{Name: "captions", Usage: "Burn in captions"},
					&cli.BoolFlag{Name: "wait", Usage: "Wait for the first preview"},
				},
				Action: r.JobsSubmit,
			},
			{
				Name:  "list",
				Usage: "List transformation jobs",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Value: 1, Usage: "Page number"},
					&cli.IntFlag{Name: "page-size", Usage: "Jobs per page (defaults to the configured page size)"},
					&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Keep refreshing while jobs are in progress"},
					formatFlag("txt"),
				},
				Action: r.JobsList,
			},
			{
				Name:      "show",
				Usage:     "Show a job and its transformed items",
				Arguments: idArg(),
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "wait", Usage: "Poll until the first item is ready"},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.JobsShow,
			},
			{
				Name:      "cancel",
				Usage:     "Cancel a job",
				Arguments: idArg(),
				Action:    r.JobsCancel,
			},
			{
				Name:      "download",
				Usage:     "Save every transformed item of a job",
				Arguments: idArg(),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output directory"},
				},
				Action: r.JobsDownload,
			},
			{
				Name:      "media",
				Usage:     "Show one transformed item, optionally downloading it",
				ArgsUsage: "<item-id>",
				Arguments: idArg(),
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "download", Aliases: []string{"d"}, Usage: "Download the item"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file"},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.JobsMedia,
			},
			{
				Name:      "upload",
				Usage:     "Publish a transformed item",
				ArgsUsage: "<item-id>",
				Arguments: idArg(),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "platform", Aliases: []string{"p"}, Usage: "Defaults to the item's target platform"},
					&cli.StringFlag{Name: "channel", Usage: "YouTube channel id"},
					&cli.StringFlag{Name: "title", Usage: "Video title (defaults to the caption)"},
					&cli.StringFlag{Name: "description", Usage: "Video description"},
				},
				Action: r.JobsUpload,
			},
			{
				Name:  "history",
				Usage: "List jobs recorded on this machine",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "Filter by status"},
					&cli.StringFlag{Name: "platform", Usage: "Filter by platform"},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.JobsHistory,
			},
		},
	}
}

// apiCommand handles direct backend calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "api",
		Usage:  "Direct authenticated calls to the mazeed backend",
		Before: r.Open,
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "GET a backend path and print the response",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON", Value: true},
				},
				Action: r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "POST a JSON body",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:      "delete",
				Usage:     "DELETE a backend path",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Action:    r.APIDelete,
			},
		},
	}
}

// tuiCommand launches the interactive workflow
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the import, select, destination and transform wizard",
		Before: r.Open,
		Action: r.TUI,
	}
}
