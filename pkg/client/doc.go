// Package client talks to the secrets daemon over its Unix socket.
//
//	c := client.New("/run/secrets-in-go/secrets.socket")
//	if err := c.SetSecret(ctx, "app/token", []byte("s3cr3t")); err != nil {
//		...
//	}
//
// Answers other than 200 are returned as *StatusError.
package client
