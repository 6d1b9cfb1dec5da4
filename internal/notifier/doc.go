// Package notifier delivers a rendered digest.
//
// Email (SMTP with STARTTLS), Telegram and the console are supported.
// FromConfig picks a channel based on which credentials are configured and
// wraps it so that a failed delivery still prints the digest.
package notifier
