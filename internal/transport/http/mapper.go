package http

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vovakirdan/miochat-server/internal/core"
	"github.com/vovakirdan/miochat-server/internal/proto"
	"github.com/vovakirdan/miochat-server/internal/reaction"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := decodeData(inbound.Data, &join); err != nil {
			return nil, err
		}
		return &core.Command{
			Kind:     core.CommandJoinRoom,
			Room:     join.Room,
			Username: join.Username,
		}, nil
	case proto.InboundTypeChat:
		var chat proto.ChatData
		if err := decodeData(inbound.Data, &chat); err != nil {
			return nil, err
		}
		cmd := &core.Command{
			Kind:     core.CommandSendMessage,
			Room:     chat.Room,
			Username: chat.Username,
			Text:     chat.Body(),
		}
		if chat.ReplyTo != nil {
			cmd.ReplyTo = &core.ReplyRef{
				ID:       chat.ReplyTo.ID,
				Username: chat.ReplyTo.Username,
				Text:     chat.ReplyTo.Text,
			}
		}
		return cmd, nil
	case proto.InboundTypeReaction:
		var r proto.ReactionData
		if err := decodeData(inbound.Data, &r); err != nil {
			return nil, err
		}
		return &core.Command{
			Kind:      core.CommandToggleReaction,
			Room:      r.Room,
			Username:  r.Username,
			MessageID: r.MessageID,
			Emoji:     r.Emoji,
		}, nil
	case proto.InboundTypeTyping, proto.InboundTypeStopTyping:
		var typing proto.TypingData
		if err := decodeData(inbound.Data, &typing); err != nil {
			return nil, err
		}
		kind := core.CommandTyping
		if inbound.Type == proto.InboundTypeStopTyping {
			kind = core.CommandStopTyping
		}
		return &core.Command{Kind: kind, Room: typing.Room, Username: typing.Username}, nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownEvent, inbound.Type)
	}
}

func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing data", core.ErrBadRequest)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", core.ErrBadRequest, err)
	}
	return nil
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameMessage,
			Data:  messageToProto(event.Message),
		}
	case core.EventReaction:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameReaction,
			Data: proto.EventReaction{
				MessageID: event.MessageID,
				Reactions: reactionsToProto(event.Reactions),
			},
		}
	case core.EventUserTyping:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameUserTyping,
			Data:  proto.EventTyping{Username: event.User},
		}
	case core.EventUserStopTyping:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameUserStopTyping,
			Data:  proto.EventTyping{Username: event.User},
		}
	case core.EventRoomUsers:
		users := event.Users
		if users == nil {
			users = []string{}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameRoomUsers,
			Data:  proto.EventRoomUsers{Room: event.Room, Users: users},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func messageToProto(msg core.Message) proto.EventMessage {
	out := proto.EventMessage{
		ID:        msg.ID,
		Username:  msg.Username,
		Text:      msg.Text,
		Time:      msg.DisplayTime(),
		TS:        msg.CreatedAt.UTC().Format(time.RFC3339),
		Reactions: reactionsToProto(msg.Reactions),
	}
	if msg.ReplyTo != nil {
		out.ReplyTo = &proto.ReplyData{
			ID:       msg.ReplyTo.ID,
			Username: msg.ReplyTo.Username,
			Text:     msg.ReplyTo.Text,
		}
	}
	return out
}

// reactionsToProto always returns a non-nil map so an empty aggregate encodes as {}.
func reactionsToProto(agg reaction.Aggregate) map[string]proto.Reaction {
	out := make(map[string]proto.Reaction, len(agg))
	for emoji, entry := range agg {
		users := make([]string, len(entry.Users))
		copy(users, entry.Users)
		out[emoji] = proto.Reaction{Count: entry.Count, Users: users}
	}
	return out
}
