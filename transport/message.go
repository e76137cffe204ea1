package transport

import "go.mau.fi/whatsmeow/proto/waE2E"

// ExtractText pulls the plain text out of the message shapes we handle:
// plain conversation, extended text (replies/links), media captions and
// the ephemeral wrapper around any of those.
func ExtractText(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	if t := msg.GetConversation(); t != "" {
		return t
	}
	if t := msg.GetExtendedTextMessage().GetText(); t != "" {
		return t
	}
	if t := msg.GetImageMessage().GetCaption(); t != "" {
		return t
	}
	if t := msg.GetVideoMessage().GetCaption(); t != "" {
		return t
	}
	if inner := msg.GetEphemeralMessage().GetMessage(); inner != nil {
		return ExtractText(inner)
	}
	return ""
}
