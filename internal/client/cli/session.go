package cli

import (
	"context"

	"github.com/mmilam360/nostr-journal/internal/common"
)

// Login prompts for an nsec (or raw hex) secret and opens a local session.
func (a *App) Login(ctx context.Context) error {
	secret, err := GetSecret("Enter nsec or hex secret", a.out)
	if err != nil {
		printlnFn("error:", err)
		return err
	}
	defer common.WipeByteArray(secret)

	sess, err := a.sessions.LoginWithSecret(ctx, string(secret))
	if err != nil {
		printlnFn("login failed:", err)
		return err
	}
	a.setSession(sess)
	printlnFn("Logged in as", a.status())
	return nil
}

// Generate creates a fresh keypair and shows the nsec once for backup.
func (a *App) Generate(ctx context.Context) error {
	sess, nsec, err := a.sessions.GenerateAccount(ctx)
	if err != nil {
		printlnFn("error:", err)
		return err
	}
	a.setSession(sess)
	printlnFn("New account created. Back up this secret, it will not be shown again:")
	printlnFn(nsec)
	return nil
}

// Connect starts the remote-signer flow: shows the nostrconnect:// URI and
// waits for the signer to approve.
func (a *App) Connect(ctx context.Context) error {
	req, err := a.sessions.ConnectRemote(ctx)
	if err != nil {
		printlnFn("error:", err)
		return err
	}
	printlnFn("Paste this into your signer and approve the request:")
	printlnFn(req.URI)
	return a.awaitApproval(ctx)
}

// Bunker connects using a pasted bunker:// string.
func (a *App) Bunker(ctx context.Context) error {
	raw, err := GetSimpleText(a.reader, "Paste the bunker:// connection string", a.out)
	if err != nil {
		printlnFn("error:", err)
		return err
	}
	if _, err := a.sessions.ConnectBunker(ctx, raw); err != nil {
		printlnFn("error:", err)
		return err
	}
	return a.awaitApproval(ctx)
}

func (a *App) awaitApproval(ctx context.Context) error {
	printlnFn("Waiting for approval...")
	sess, err := a.sessions.AwaitApproval(ctx)
	if err != nil {
		printlnFn("connection failed:", err)
		return err
	}
	a.setSession(sess)
	printlnFn("Connected as", a.status())
	printlnFn("Note: publishing to relays needs a local secret and stays off in remote sessions.")
	return nil
}

// Logout closes the session and wipes its key material.
func (a *App) Logout(ctx context.Context) error {
	a.sessions.Logout(a.currentSession())
	a.setSession(nil)
	printlnFn("Logged out")
	return nil
}
