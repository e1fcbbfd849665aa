package notifier

import (
	"context"
	"fmt"
)

// StdoutNotifier satisfies all three transport interfaces by printing to
// standard output. Used when a channel's real transport is not configured,
// so local runs still show what would have been delivered.
type StdoutNotifier struct{}

// NewStdoutNotifier creates a new StdoutNotifier.
func NewStdoutNotifier() *StdoutNotifier {
	return &StdoutNotifier{}
}

func (n *StdoutNotifier) SendEmail(ctx context.Context, address, subject, htmlBody string) error {
	fmt.Printf("--- EMAIL ---\nTo: %s\nSubject: %s\n%s\n-------------\n", address, subject, htmlBody)
	return nil
}

func (n *StdoutNotifier) SendSMS(ctx context.Context, number, text string) error {
	fmt.Printf("--- SMS ---\nTo: %s\n%s\n-----------\n", number, text)
	return nil
}

func (n *StdoutNotifier) SendPush(ctx context.Context, userID, title, body string) error {
	fmt.Printf("--- PUSH ---\nUser: %s\nTitle: %s\nBody: %s\n------------\n", userID, title, body)
	return nil
}
