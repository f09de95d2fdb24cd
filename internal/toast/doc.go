// Package toast is the notification bus shared by the CLI, the workflow and the terminal UI.
//
// Components depend on the [Notifier] interface and receive a [Bus] at construction.
// The bus keeps one active [Message]; showing a new one replaces it, and each message
// is dismissed after [DefaultDuration] unless paused.
package toast
