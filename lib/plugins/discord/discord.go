// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package discord recovers Discord chat messages from cached API
// responses.
package discord

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/CH-CLARK/mister-skinnylegs/lib/artifact"
	"github.com/CH-CLARK/mister-skinnylegs/lib/catalog"
	"github.com/CH-CLARK/mister-skinnylegs/lib/profile"
)

var messagesPattern = regexp.MustCompile(`discord.com/api/v9/channels/\d+?/messages`)

// Plugin registers the Discord artifacts.
func Plugin() catalog.Plugin {
	return catalog.Plugin{
		Origin: "github.com/CH-CLARK/mister-skinnylegs/lib/plugins/discord",
		Artifacts: []artifact.Descriptor{
			{
				Service:      "Discord",
				Name:         "Discord Chat Messages",
				Description:  "Recovers Discord chat messages from the Cache",
				Version:      "0.1",
				Extract:      messages,
				Presentation: artifact.PresentationTable,
			},
		},
	}
}

// message mirrors one entry of a channel messages API response.
type message struct {
	ID              string `json:"id"`
	ChannelID       string `json:"channel_id"`
	Type            int    `json:"type"`
	Content         string `json:"content"`
	Timestamp       string `json:"timestamp"`
	EditedTimestamp any    `json:"edited_timestamp"`
	Author          struct {
		ID         string `json:"id"`
		Username   string `json:"username"`
		GlobalName any    `json:"global_name"`
	} `json:"author"`
	Attachments []struct {
		ID       string `json:"id"`
		Filename string `json:"filename"`
		URL      string `json:"url"`
	} `json:"attachments"`
	MessageReference *struct {
		ChannelID string `json:"channel_id"`
		MessageID string `json:"message_id"`
	} `json:"message_reference"`
}

// messages flattens every cached channel response into one tabular
// report. Attachments and reply references collapse into single
// cells, which keeps the output tabular at the cost of some
// readability on heavily-attached messages.
func messages(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	var results artifact.Result

	err := p.IterateCache(profile.MatchRegexp(messagesPattern), func(rec profile.CacheRecord) error {
		var list []message
		if err := json.Unmarshal(rec.Data, &list); err != nil {
			logger.Warn("unparseable message list in cache", "location", rec.DataLocation, "error", err)
			return nil
		}
		for _, msg := range list {
			attachments := make([]string, 0, len(msg.Attachments))
			for _, attachment := range msg.Attachments {
				attachments = append(attachments,
					fmt.Sprintf("ID=%s; filename='%s'; url='%s'", attachment.ID, attachment.Filename, attachment.URL))
			}
			var reference any
			if msg.MessageReference != nil {
				reference = fmt.Sprintf("channel=%s; message=%s",
					msg.MessageReference.ChannelID, msg.MessageReference.MessageID)
			}
			results = append(results, artifact.Record{
				"channel id":         msg.ChannelID,
				"message id":         msg.ID,
				"author id":          msg.Author.ID,
				"message type":       msg.Type,
				"author username":    msg.Author.Username,
				"author global name": msg.Author.GlobalName,
				"timestamp":          msg.Timestamp,
				"edited timestamp":   msg.EditedTimestamp,
				"content":            msg.Content,
				"attachments":        strings.Join(attachments, "\n"),
				"message reference":  reference,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		ci, cj := results[i]["channel id"].(string), results[j]["channel id"].(string)
		if ci != cj {
			return ci < cj
		}
		return results[i]["timestamp"].(string) < results[j]["timestamp"].(string)
	})
	return results, nil
}
