package auth

import "context"

// Presentation is what the UI layer needs to show the authorization page.
type Presentation struct {
	URL     string
	State   string
	WebView bool
}

// Presenter opens the authorization URL in a browser or web view. The UI layer
// later reports the redirect through Flow.HandleRedirect, or app foregrounding
// through Flow.Resumed.
type Presenter interface {
	Present(ctx context.Context, p Presentation) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(ctx context.Context, p Presentation) error

func (f PresenterFunc) Present(ctx context.Context, p Presentation) error { return f(ctx, p) }
