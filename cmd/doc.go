// Package cmd implements the command-line interface for graphmail.
//
// Mail commands:
//   - inbox, all: list the newest messages of the Inbox or of every folder
//   - search: full-text search over all messages
//   - send, draft, send-draft, reply: compose and send mail
//   - delete, move, folders, create-folder: organize the mailbox
//   - download-attach: save a message's file attachments
//
// Account commands:
//   - login, logout, whoami: manage the stored sign-in
//   - version: display version information
//
// Every mail command obtains an access token first. When that fails the
// command prints "Failed to get token" and exits non-zero. Errors reported
// by Microsoft Graph are printed and the command still exits zero.
package cmd
