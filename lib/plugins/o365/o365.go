// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package o365 recovers O365/SharePoint recent-file listings and
// their thumbnails from cached API responses. Two APIs feed the same
// report: SharePoint's RecentFileCollection endpoint and the
// substrate.office.com "edgeworth" recommendation service.
package o365

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"regexp"
	"sort"
	"strings"

	"github.com/CH-CLARK/mister-skinnylegs/lib/artifact"
	"github.com/CH-CLARK/mister-skinnylegs/lib/catalog"
	"github.com/CH-CLARK/mister-skinnylegs/lib/profile"
)

const guidFragment = `[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`

var (
	sharepointRecentPattern = regexp.MustCompile(`sharepoint.com/.+?/_api/sp.RecentFileCollection`)
	edgeworthRecentPattern  = regexp.MustCompile(`substrate\.office\.com/recommended/api/beta/edgeworth/(deltasync|recent)`)
	sharepointThumbPattern  = regexp.MustCompile(
		`sharepoint\.com/_api/v2\.1/sites/` + guidFragment +
			`/lists/` + guidFragment +
			`/items/` + guidFragment +
			`/driveItem/thumbnails`)
	graphThumbPattern = regexp.MustCompile(
		`https://graph\.microsoft\.com/v1\.0/drives/([\w!\-]+?)/items/([0-9A-Z]+?)/thumbnail`)

	thumbUniqueIDPattern = regexp.MustCompile(`/items/(` + guidFragment + `)/driveItem`)
)

const nullGUID = "00000000-0000-0000-0000-000000000000"

// Plugin registers the O365/SharePoint artifacts.
func Plugin() catalog.Plugin {
	return catalog.Plugin{
		Origin: "github.com/CH-CLARK/mister-skinnylegs/lib/plugins/o365",
		Artifacts: []artifact.Descriptor{
			{
				Service:      "O365-Sharepoint",
				Name:         "O365-Sharepoint recent files",
				Description:  "Recovers recent files list and any thumbnails from API responses in the cache",
				Version:      "0.1",
				Extract:      recentFiles,
				Presentation: artifact.PresentationTable,
			},
		},
	}
}

func recentFiles(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	var results artifact.Result

	sharepoint, err := sharepointRecentFiles(p, logger, store)
	if err != nil {
		return nil, err
	}
	results = append(results, sharepoint...)

	edgeworth, err := edgeworthRecentFiles(p, logger, store)
	if err != nil {
		return nil, err
	}
	results = append(results, edgeworth...)

	return results, nil
}

// recentFileCollection mirrors the RecentFileCollection response. The
// per-method payloads are JSON embedded in JSON strings.
type recentFileCollection struct {
	D struct {
		DeltaSync      string `json:"DeltaSync"`
		GetRecentFiles string `json:"GetRecentFiles"`
	} `json:"d"`
}

type sharepointFile struct {
	File struct {
		ID                   string `json:"Id"`
		ODataID              string `json:"@odata.id"`
		FileName             string `json:"FileName"`
		FileSize             any    `json:"FileSize"`
		FileCreatedTime      string `json:"FileCreatedTime"`
		FileModifiedTime     string `json:"FileModifiedTime"`
		LastModifiedDateTime string `json:"LastModifiedDateTime"`
		FileOwner            string `json:"FileOwner"`
		SharePointItem       struct {
			FileURL    string `json:"FileUrl"`
			SiteID     string `json:"SiteId"`
			WebID      string `json:"WebId"`
			ListID     string `json:"ListId"`
			UniqueID   string `json:"UniqueId"`
			ParentID   string `json:"ParentId"`
			ModifiedBy string `json:"ModifiedBy"`
		} `json:"SharePointItem"`
	} `json:"file"`
}

func sharepointRecentFiles(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	var results artifact.Result
	idToFilename := make(map[string]map[string]bool)

	// Files first; thumbnail hunting needs the name index.
	err := p.IterateCache(profile.MatchRegexp(sharepointRecentPattern), func(rec profile.CacheRecord) error {
		if len(rec.Data) == 0 {
			return nil
		}
		var collection recentFileCollection
		if err := json.Unmarshal(rec.Data, &collection); err != nil {
			logger.Warn("unparseable recent file collection", "location", rec.DataLocation, "error", err)
			return nil
		}

		var method, embedded string
		switch {
		case collection.D.DeltaSync != "":
			method = "DeltaSync"
			embedded = collection.D.DeltaSync
		case collection.D.GetRecentFiles != "":
			method = "GetRecentFiles"
			embedded = collection.D.GetRecentFiles
		default:
			logger.Warn("recent file collection with no known method", "url", rec.URL)
			return nil
		}

		var files []sharepointFile
		if method == "DeltaSync" {
			var payload struct {
				Files []sharepointFile `json:"files"`
			}
			if err := json.Unmarshal([]byte(embedded), &payload); err != nil {
				logger.Warn("unparseable DeltaSync payload", "location", rec.DataLocation, "error", err)
				return nil
			}
			files = payload.Files
		} else {
			if err := json.Unmarshal([]byte(embedded), &files); err != nil {
				logger.Warn("unparseable GetRecentFiles payload", "location", rec.DataLocation, "error", err)
				return nil
			}
		}

		var requestTime, responseTime any
		if rec.Metadata != nil {
			requestTime = rec.Metadata.RequestTime
			responseTime = rec.Metadata.ResponseTime
		}
		for _, wrapper := range files {
			file := wrapper.File
			item := file.SharePointItem
			results = append(results, artifact.Record{
				"cache record location":         rec.DataLocation,
				"cache request timestamp":       requestTime,
				"cache response timestamp":      responseTime,
				"api endpoint cache url":        rec.URL,
				"method":                        method,
				"source":                        nil,
				"id":                            file.ID,
				"odata id":                      file.ODataID,
				"file name":                     file.FileName,
				"file url":                      item.FileURL,
				"file size":                     file.FileSize,
				"file created time":             file.FileCreatedTime,
				"file created by":               nil,
				"file modified time":            file.FileModifiedTime,
				"file modified by":              nil,
				"record modified time":          file.LastModifiedDateTime,
				"file owner":                    file.FileOwner,
				"sharepoint site":               item.SiteID,
				"sharepoint web id":             item.WebID,
				"sharepoint list id":            item.ListID,
				"sharepoint unique id":          item.UniqueID,
				"sharepoint parent id":          item.ParentID,
				"onedrive drive id":             nil,
				"onedrive item id":              nil,
				"modified by":                   item.ModifiedBy,
				"thumbnail url":                 nil,
				"extracted thumbnail reference": nil,
			})

			if item.UniqueID != nullGUID && file.FileName != "" {
				uniqueID := strings.ToLower(item.UniqueID)
				if idToFilename[uniqueID] == nil {
					idToFilename[uniqueID] = make(map[string]bool)
				}
				idToFilename[uniqueID][file.FileName] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Unique ID to exported thumbnail reference and source URL.
	thumbReferences := make(map[string][]thumbReference)
	index := 0
	err = p.IterateCache(profile.MatchRegexp(sharepointThumbPattern), func(rec profile.CacheRecord) error {
		m := thumbUniqueIDPattern.FindStringSubmatch(rec.URL)
		if m == nil {
			logger.Warn("no unique id in thumbnail url", "url", rec.URL)
			return nil
		}
		uniqueID := strings.ToLower(m[1])
		name := fmt.Sprintf("thumb_sp_%04d_%s%s%s",
			index, uniqueID, knownNamesSuffix(idToFilename[uniqueID]), extensionFor(rec))
		index++

		reference, err := exportThumbnail(store, name, rec.Data)
		if err != nil {
			return err
		}
		logger.Info("exported thumbnail", "reference", reference)
		thumbReferences[uniqueID] = append(thumbReferences[uniqueID], thumbReference{reference, rec.URL})
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, record := range results {
		uniqueID, _ := record["sharepoint unique id"].(string)
		attachThumbnails(record, thumbReferences[strings.ToLower(uniqueID)])
	}
	return results, nil
}

// edgeworthFile mirrors one file entry of an edgeworth deltasync or
// recent response.
type edgeworthFile struct {
	ID                string               `json:"id"`
	Source            string               `json:"source"`
	Title             string               `json:"title"`
	Extension         string               `json:"extension"`
	URL               string               `json:"url"`
	WebURL            string               `json:"web_url"`
	FileSize          any                  `json:"file_size"`
	CreationInfo      *edgeworthChangeInfo `json:"creation_info"`
	ModificationInfo  *edgeworthChangeInfo `json:"modification_info"`
	LastStoreModified string               `json:"last_store_modified_datetime"`
	SharepointInfo    *struct {
		SiteID   string `json:"site_id"`
		WebID    string `json:"web_id"`
		ListID   string `json:"list_id"`
		UniqueID string `json:"unique_id"`
	} `json:"sharepoint_info"`
	OnedriveInfo *struct {
		DriveID string `json:"drive_id"`
		ItemID  string `json:"item_id"`
	} `json:"onedrive_info"`
}

type edgeworthChangeInfo struct {
	Timestamp string `json:"timestamp"`
	User      *struct {
		DisplayName string `json:"display_name"`
		UPN         string `json:"upn"`
		ID          string `json:"id"`
	} `json:"user"`
}

// user renders "Display Name - upn" (falling back to the account ID).
func (c *edgeworthChangeInfo) user() any {
	if c == nil || c.User == nil {
		return nil
	}
	identifier := c.User.UPN
	if identifier == "" {
		identifier = c.User.ID
	}
	return fmt.Sprintf("%s - %s", c.User.DisplayName, identifier)
}

func (c *edgeworthChangeInfo) timestamp() any {
	if c == nil {
		return nil
	}
	return c.Timestamp
}

// onedriveKey identifies a OneDrive item for thumbnail matching.
type onedriveKey struct {
	driveID string
	itemID  string
}

func edgeworthRecentFiles(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	var results artifact.Result
	idToFilename := make(map[onedriveKey]map[string]bool)

	err := p.IterateCache(profile.MatchRegexp(edgeworthRecentPattern), func(rec profile.CacheRecord) error {
		if len(rec.Data) == 0 {
			return nil
		}
		method := edgeworthRecentPattern.FindStringSubmatch(rec.URL)[1]

		var payload struct {
			Files []edgeworthFile `json:"files"`
		}
		if err := json.Unmarshal(rec.Data, &payload); err != nil {
			logger.Warn("unparseable edgeworth payload", "location", rec.DataLocation, "error", err)
			return nil
		}

		var requestTime, responseTime any
		if rec.Metadata != nil {
			requestTime = rec.Metadata.RequestTime
			responseTime = rec.Metadata.ResponseTime
		}
		for _, file := range payload.Files {
			var fileName string
			if file.Title != "" {
				fileName = file.Title
				if file.Extension != "" {
					fileName = file.Title + "." + file.Extension
				}
			}
			fileURL := file.URL
			if fileURL == "" {
				fileURL = file.WebURL
			}

			record := artifact.Record{
				"cache record location":         rec.DataLocation,
				"cache request timestamp":       requestTime,
				"cache response timestamp":      responseTime,
				"api endpoint cache url":        rec.URL,
				"method":                        method,
				"source":                        file.Source,
				"id":                            file.ID,
				"odata id":                      nil,
				"file name":                     fileName,
				"file url":                      fileURL,
				"file size":                     file.FileSize,
				"file created time":             file.CreationInfo.timestamp(),
				"file created by":               file.CreationInfo.user(),
				"file modified time":            file.ModificationInfo.timestamp(),
				"file modified by":              file.ModificationInfo.user(),
				"record modified time":          file.LastStoreModified,
				"file owner":                    nil,
				"sharepoint site":               nil,
				"sharepoint web id":             nil,
				"sharepoint list id":            nil,
				"sharepoint unique id":          nil,
				"sharepoint parent id":          nil,
				"onedrive drive id":             nil,
				"onedrive item id":              nil,
				"modified by":                   nil,
				"thumbnail url":                 nil,
				"extracted thumbnail reference": nil,
			}
			if sp := file.SharepointInfo; sp != nil {
				record["sharepoint site"] = sp.SiteID
				record["sharepoint web id"] = sp.WebID
				record["sharepoint list id"] = sp.ListID
				record["sharepoint unique id"] = sp.UniqueID
			}
			if od := file.OnedriveInfo; od != nil {
				record["onedrive drive id"] = od.DriveID
				record["onedrive item id"] = od.ItemID
				if od.DriveID != "" && od.ItemID != "" && fileName != "" {
					key := onedriveKey{od.DriveID, od.ItemID}
					if idToFilename[key] == nil {
						idToFilename[key] = make(map[string]bool)
					}
					idToFilename[key][fileName] = true
				}
			}
			results = append(results, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	thumbReferences := make(map[onedriveKey][]thumbReference)
	index := 0
	err = p.IterateCache(profile.MatchRegexp(graphThumbPattern), func(rec profile.CacheRecord) error {
		if len(rec.Data) == 0 {
			return nil
		}
		m := graphThumbPattern.FindStringSubmatch(rec.URL)
		key := onedriveKey{m[1], m[2]}
		name := fmt.Sprintf("thumb_gr_%04d_%s_%s%s%s",
			index, key.driveID, key.itemID, knownNamesSuffix(idToFilename[key]), extensionFor(rec))
		index++

		reference, err := exportThumbnail(store, name, rec.Data)
		if err != nil {
			return err
		}
		logger.Info("exported thumbnail", "reference", reference)
		thumbReferences[key] = append(thumbReferences[key], thumbReference{reference, rec.URL})
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, record := range results {
		driveID, _ := record["onedrive drive id"].(string)
		itemID, _ := record["onedrive item id"].(string)
		if driveID == "" || itemID == "" {
			continue
		}
		attachThumbnails(record, thumbReferences[onedriveKey{driveID, itemID}])
	}
	return results, nil
}

// thumbReference ties an exported thumbnail back to the cache URL it
// came from.
type thumbReference struct {
	location string
	url      string
}

func exportThumbnail(store artifact.Storage, name string, data []byte) (string, error) {
	out, err := store.NewBinaryOutput(name)
	if err != nil {
		return "", err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return out.Location(), nil
}

func attachThumbnails(record artifact.Record, references []thumbReference) {
	if len(references) == 0 {
		return
	}
	urls := make([]string, len(references))
	locations := make([]string, len(references))
	for i, reference := range references {
		urls[i] = reference.url
		locations[i] = reference.location
	}
	record["thumbnail url"] = strings.Join(urls, "\n")
	record["extracted thumbnail reference"] = strings.Join(locations, "\n")
}

// knownNamesSuffix renders the known filenames for an item as a
// deterministic "_name1; name2" suffix for the exported thumbnail's
// filename, or "" when the item never appeared in a file listing.
func knownNamesSuffix(names map[string]bool) string {
	if len(names) == 0 {
		return ""
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)
	return "_" + strings.Join(sorted, "; ")
}

// extensionFor guesses a file extension from the cached response's
// content type.
func extensionFor(rec profile.CacheRecord) string {
	if rec.Metadata == nil {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(rec.Metadata.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	extensions, err := mime.ExtensionsByType(mediaType)
	if err != nil || len(extensions) == 0 {
		return ""
	}
	return extensions[0]
}
