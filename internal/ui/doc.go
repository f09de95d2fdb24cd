// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks the transformation wizard:
//  1. [ImportView] : Connect Instagram in the browser and import content
//  2. [SelectView] : Filter and select reels and posts
//  3. [DestinationView] : Connect and choose YouTube or TikTok
//  4. [TransformView] : Pick options, submit, then preview, download or upload the result
//
// [QueueView] lists recent jobs and refreshes while any of them is in progress.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Blocking work runs in background tasks whose progress updates flow through a channel, one message per update.
// Toasts from the shared bus are shown on a single line below the current view.
package ui
