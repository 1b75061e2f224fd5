// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package chatgpt recovers ChatGPT conversation and account
// information from the browser cache and history.
package chatgpt

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"time"

	"github.com/CH-CLARK/mister-skinnylegs/lib/artifact"
	"github.com/CH-CLARK/mister-skinnylegs/lib/catalog"
	"github.com/CH-CLARK/mister-skinnylegs/lib/profile"
)

var (
	conversationListPattern = regexp.MustCompile(`chatgpt.*?\.[A-z]{2,3}/backend-api/conversations\?offset`)
	conversationURLPattern  = regexp.MustCompile(`https?://.*chatgpt.*?\.[A-z]{2,3}/c/[0-9a-fA-F\-]{36}$`)
	accountInfoPattern      = regexp.MustCompile(`chatgpt.*?\.[A-z]{2,3}/backend-api/me`)
)

// Plugin registers the ChatGPT artifacts.
func Plugin() catalog.Plugin {
	return catalog.Plugin{
		Origin: "github.com/CH-CLARK/mister-skinnylegs/lib/plugins/chatgpt",
		Artifacts: []artifact.Descriptor{
			{
				Service:      "ChatGPT",
				Name:         "ChatGPT Chat Information",
				Description:  "Recovers ChatGPT chat information from History and Cache",
				Version:      "0.1",
				Extract:      chatInformation,
				Presentation: artifact.PresentationTable,
			},
			{
				Service:      "ChatGPT",
				Name:         "ChatGPT User Information",
				Description:  "Recovers ChatGPT user information from Cache",
				Version:      "0.1",
				Extract:      userInformation,
				Presentation: artifact.PresentationTable,
			},
		},
	}
}

// conversationList mirrors the backend-api/conversations response.
type conversationList struct {
	Items []struct {
		ID         string  `json:"id"`
		Title      string  `json:"title"`
		CreateTime float64 `json:"create_time"`
		UpdateTime float64 `json:"update_time"`
	} `json:"items"`
}

func chatInformation(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	var results artifact.Result

	err := p.IterateCache(profile.MatchRegexp(conversationListPattern), func(rec profile.CacheRecord) error {
		var list conversationList
		if err := json.Unmarshal(rec.Data, &list); err != nil {
			logger.Warn("unparseable conversation list in cache", "location", rec.DataLocation, "error", err)
			return nil
		}
		for _, item := range list.Items {
			results = append(results, artifact.Record{
				"ID":                item.ID,
				"Title":             item.Title,
				"History Timestamp": "N/A",
				"Chat Created Time": unixSecondsToTime(item.CreateTime),
				"Chat Updated Time": unixSecondsToTime(item.UpdateTime),
				"Original URL":      "N/A",
				"Source":            "Cache",
				"Data Location":     rec.DataLocation,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.IterateHistory(profile.MatchRegexp(conversationURLPattern), func(rec profile.HistoryRecord) error {
		results = append(results, artifact.Record{
			"ID":                rec.URL[len(rec.URL)-36:],
			"Title":             rec.Title,
			"History Timestamp": rec.VisitTime,
			"Chat Created Time": "Unknown",
			"Chat Updated Time": "Unknown",
			"Original URL":      rec.URL,
			"Source":            "History",
			"Data Location":     rec.RecordLocation,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

// accountInfo mirrors the backend-api/me response.
type accountInfo struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phone_number"`
	Created     float64 `json:"created"`
}

func userInformation(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	var results artifact.Result

	err := p.IterateCache(profile.MatchRegexp(accountInfoPattern), func(rec profile.CacheRecord) error {
		var account accountInfo
		if err := json.Unmarshal(rec.Data, &account); err != nil {
			logger.Warn("unparseable account info in cache", "location", rec.DataLocation, "error", err)
			return nil
		}
		results = append(results, artifact.Record{
			"Created":       unixSecondsToTime(account.Created),
			"Name":          account.Name,
			"Email":         account.Email,
			"Phone Number":  account.PhoneNumber,
			"Source":        "Cache",
			"Data Location": rec.DataLocation,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

// unixSecondsToTime converts the fractional Unix timestamps ChatGPT's
// API uses. Zero stays zero so missing values are visible as such.
func unixSecondsToTime(seconds float64) any {
	if seconds == 0 {
		return nil
	}
	sec := int64(seconds)
	nanos := int64((seconds - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nanos).UTC()
}
