// Package telegram is a minimal Telegram Bot API client for delivering the
// digest to a chat.
//
// Only sendMessage is used. Authentication requires a bot token (from
// @BotFather) and a chat ID.
package telegram
