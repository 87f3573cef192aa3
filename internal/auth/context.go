// ABOUTME: Request context plumbing for the authenticated user
// ABOUTME: The HTTP middleware stores the token subject; handlers read it back

package auth

import "context"

type subjectKey struct{}

// WithSubject returns a context carrying the authenticated user id.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// SubjectFrom returns the authenticated user id, if any.
func SubjectFrom(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(subjectKey{}).(string)
	return sub, ok && sub != ""
}
