// Package workers provides abstractions for managing and running
// background workers in the application.
// It defines the Worker interface and a Workers aggregate that allows
// running multiple workers in a unified way, plus the workers the client
// runs next to the sync engine.
package workers

import "context"

// Worker is the interface that must be implemented by any background worker.
// It defines a single Run method that starts the worker's execution.
//
// Implementations are expected to block until ctx is cancelled. A returned
// error stops every other worker of the same [Workers] aggregate.
//
// Example implementation:
//
//	type MyWorker struct{}
//
//	func (w *MyWorker) Run(ctx context.Context) error {
//	    <-ctx.Done()
//	    return nil
//	}
type Worker interface {
	Run(ctx context.Context) error
}

// ClipAdder receives text copied on this device.
type ClipAdder interface {
	AddClip(text string) error
}

// StateSaver persists the cached profile.
type StateSaver interface {
	SaveState(ctx context.Context) error
}

// CredentialTask checks and, when needed, refreshes the credential.
type CredentialTask interface {
	RunCommonTask(ctx context.Context) error
}

// Reconnecter restores a lost remote subscription.
type Reconnecter interface {
	Reconnect(ctx context.Context) error
}
