// Package cli implements the interactive journal shell: session commands
// (login, generate, remote-signer connect), note commands (add, list, show,
// delete, publish, sync), and stake commands (stake, progress, cancel).
package cli
