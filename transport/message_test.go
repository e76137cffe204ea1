package transport

import (
	"testing"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"google.golang.org/protobuf/proto"
)

func TestExtractText(t *testing.T) {
	cases := []struct {
		name   string
		msg    *waE2E.Message
		expect string
	}{
		{
			name:   "nil message",
			msg:    nil,
			expect: "",
		},
		{
			name:   "plain conversation",
			msg:    &waE2E.Message{Conversation: proto.String("oi, tudo bem?")},
			expect: "oi, tudo bem?",
		},
		{
			name: "extended text",
			msg: &waE2E.Message{
				ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("tem o SKU123?")},
			},
			expect: "tem o SKU123?",
		},
		{
			name: "image caption",
			msg: &waE2E.Message{
				ImageMessage: &waE2E.ImageMessage{Caption: proto.String("tem esse vestido?")},
			},
			expect: "tem esse vestido?",
		},
		{
			name: "video caption",
			msg: &waE2E.Message{
				VideoMessage: &waE2E.VideoMessage{Caption: proto.String("tem igual ao do vídeo?")},
			},
			expect: "tem igual ao do vídeo?",
		},
		{
			name: "ephemeral wrapper",
			msg: &waE2E.Message{
				EphemeralMessage: &waE2E.FutureProofMessage{
					Message: &waE2E.Message{Conversation: proto.String("mensagem temporária")},
				},
			},
			expect: "mensagem temporária",
		},
		{
			name: "ephemeral extended text",
			msg: &waE2E.Message{
				EphemeralMessage: &waE2E.FutureProofMessage{
					Message: &waE2E.Message{
						ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("resposta citada")},
					},
				},
			},
			expect: "resposta citada",
		},
		{
			name:   "no extractable text",
			msg:    &waE2E.Message{},
			expect: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractText(tc.msg); got != tc.expect {
				t.Errorf("expected %q, got %q", tc.expect, got)
			}
		})
	}
}
