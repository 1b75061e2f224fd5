// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package coinbase recovers Coinbase account details, payment
// methods, balances, and transaction history from cached GraphQL
// responses.
package coinbase

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/CH-CLARK/mister-skinnylegs/lib/artifact"
	"github.com/CH-CLARK/mister-skinnylegs/lib/catalog"
	"github.com/CH-CLARK/mister-skinnylegs/lib/profile"
)

var (
	balancesPattern       = regexp.MustCompile(`coinbase.*?\.[A-z]{2,3}/graphql/query\?&operationName=SendReceivePreloadable`)
	userDetailsPattern    = regexp.MustCompile(`coinbase.*?\.[A-z]{2,3}/graphql/query\?&operationName=userQuery`)
	paymentMethodsPattern = regexp.MustCompile(`coinbase.*?\.[A-z]{2,3}/graphql/query\?&operationName=usePaymentMethodsQuery`)

	transactionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`coinbase.*?\.[A-z]{2,3}/graphql/query\?&operationName=AssetPagePortfolioWalletQuery`),
		regexp.MustCompile(`coinbase.*?\.[A-z]{2,3}/graphql/query\?&operationName=AccountActivityRedesignedQuery`),
		regexp.MustCompile(`coinbase.*?\.[A-z]{2,3}/graphql/query\?&operationName=usePaginatedAccount`),
	}
)

// Plugin registers the Coinbase artifacts.
func Plugin() catalog.Plugin {
	return catalog.Plugin{
		Origin: "github.com/CH-CLARK/mister-skinnylegs/lib/plugins/coinbase",
		Artifacts: []artifact.Descriptor{
			{
				Service:      "Coinbase",
				Name:         "Coinbase Payment Methods",
				Description:  "Recovers Coinbase Payment Methods records from the Cache",
				Version:      "0.1",
				Extract:      paymentMethods,
				Presentation: artifact.PresentationTable,
			},
			{
				Service:      "Coinbase",
				Name:         "Coinbase User Details",
				Description:  "Recovers Coinbase User Details records from the Cache",
				Version:      "0.1",
				Extract:      userDetails,
				Presentation: artifact.PresentationTable,
			},
			{
				Service:      "Coinbase",
				Name:         "Coinbase Balances",
				Description:  "Recovers Coinbase Balances records from the Cache",
				Version:      "0.1",
				Extract:      balances,
				Presentation: artifact.PresentationTable,
			},
			{
				Service:      "Coinbase",
				Name:         "Coinbase Transactions",
				Description:  "Recovers Coinbase Transactions from the Cache",
				Version:      "0.1",
				Extract:      transactions,
				Presentation: artifact.PresentationTable,
			},
		},
	}
}

// paymentMethod mirrors one entry in the usePaymentMethodsQuery
// response. Comparable, so duplicate cached copies dedupe on value.
type paymentMethod struct {
	UUID        string `json:"uuid"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Currency    string `json:"currency"`
	PrimaryBuy  bool   `json:"primaryBuy"`
	PrimarySell bool   `json:"primarySell"`
	InstantBuy  bool   `json:"instantBuy"`
	InstantSell bool   `json:"instantSell"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
	Verified    bool   `json:"verified"`
}

type paymentMethodsResponse struct {
	Data struct {
		Viewer struct {
			PaymentMethodsV2 []paymentMethod `json:"paymentMethodsV2"`
		} `json:"viewer"`
	} `json:"data"`
}

func paymentMethods(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	var results artifact.Result
	seen := make(map[paymentMethod]bool)

	err := p.IterateCache(profile.MatchRegexp(paymentMethodsPattern), func(rec profile.CacheRecord) error {
		var response paymentMethodsResponse
		if err := json.Unmarshal(rec.Data, &response); err != nil {
			logger.Warn("unparseable payment methods in cache", "location", rec.DataLocation, "error", err)
			return nil
		}
		methods := response.Data.Viewer.PaymentMethodsV2
		if len(methods) == 0 {
			logger.Info("no payment methods identified", "location", rec.DataLocation)
		}
		for _, entry := range methods {
			// The same response is often cached more than once.
			if seen[entry] {
				continue
			}
			seen[entry] = true
			results = append(results, artifact.Record{
				"UUID":                 entry.UUID,
				"Type":                 entry.Type,
				"Name":                 entry.Name,
				"Currency":             entry.Currency,
				"Primary Buy Enabled":  entry.PrimaryBuy,
				"Primary Sell Enabled": entry.PrimarySell,
				"Instant Buy Enabled":  entry.InstantBuy,
				"Instant Sell Enabled": entry.InstantSell,
				"Created At":           entry.CreatedAt,
				"Updated At":           entry.UpdatedAt,
				"Verified":             entry.Verified,
				"Source":               "Cache",
				"Data Location":        rec.DataLocation,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

// userQueryResponse mirrors the userQuery response. User properties
// always exist: account information is a requirement of the site.
type userQueryResponse struct {
	Data struct {
		Viewer struct {
			UserProperties struct {
				Email           string `json:"email"`
				PersonalDetails struct {
					DateOfBirth string `json:"dateOfBirth"`
					LegalName   struct {
						FirstName string `json:"firstName"`
						LastName  string `json:"lastName"`
					} `json:"legalName"`
					Address struct {
						Line1      string `json:"line1"`
						Line2      string `json:"line2"`
						City       string `json:"city"`
						PostalCode string `json:"postalCode"`
						Country    struct {
							Code string `json:"code"`
						} `json:"country"`
					} `json:"address"`
				} `json:"personalDetails"`
			} `json:"userProperties"`
		} `json:"viewer"`
	} `json:"data"`
}

func userDetails(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	var results artifact.Result

	err := p.IterateCache(profile.MatchRegexp(userDetailsPattern), func(rec profile.CacheRecord) error {
		var response userQueryResponse
		if err := json.Unmarshal(rec.Data, &response); err != nil {
			logger.Warn("unparseable user details in cache", "location", rec.DataLocation, "error", err)
			return nil
		}
		properties := response.Data.Viewer.UserProperties
		details := properties.PersonalDetails
		address := details.Address
		results = append(results, artifact.Record{
			"First Name":    details.LegalName.FirstName,
			"Last Name":     details.LegalName.LastName,
			"Email":         properties.Email,
			"Date of Birth": details.DateOfBirth,
			"Address": strings.Join([]string{
				address.Line1, address.Line2, address.City, address.PostalCode, address.Country.Code,
			}, " "),
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

// sendReceiveAccount mirrors one account in the SendReceivePreloadable
// response. Comparable for value deduplication.
type sendReceiveAccount struct {
	Type             string `json:"type"`
	AvailableBalance struct {
		Currency string `json:"currency"`
		Value    string `json:"value"`
	} `json:"availableBalance"`
	AssetOrFiatCurrency struct {
		Asset struct {
			Name string `json:"name"`
		} `json:"asset"`
	} `json:"assetOrFiatCurrency"`
}

type sendReceiveResponse struct {
	Data struct {
		Viewer struct {
			ReceiveAccounts []sendReceiveAccount `json:"receiveAccounts"`
			SendAccounts    []sendReceiveAccount `json:"sendAccounts"`
		} `json:"viewer"`
	} `json:"data"`
}

func balances(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	var results artifact.Result
	seen := make(map[sendReceiveAccount]bool)

	appendAccounts := func(accounts []sendReceiveAccount, location string) {
		for _, account := range accounts {
			if seen[account] {
				continue
			}
			seen[account] = true
			results = append(results, artifact.Record{
				"Type":          account.Type,
				"Currency":      account.AvailableBalance.Currency,
				"Name":          account.AssetOrFiatCurrency.Asset.Name,
				"Balance":       account.AvailableBalance.Value,
				"Source":        "Cache",
				"Data Location": location,
			})
		}
	}

	err := p.IterateCache(profile.MatchRegexp(balancesPattern), func(rec profile.CacheRecord) error {
		var response sendReceiveResponse
		if err := json.Unmarshal(rec.Data, &response); err != nil {
			logger.Warn("unparseable balances in cache", "location", rec.DataLocation, "error", err)
			return nil
		}
		viewer := response.Data.Viewer
		if len(viewer.ReceiveAccounts) == 0 {
			logger.Info("no receive accounts identified", "location", rec.DataLocation)
		}
		if len(viewer.SendAccounts) == 0 {
			logger.Info("no send accounts identified", "location", rec.DataLocation)
		}
		appendAccounts(viewer.ReceiveAccounts, rec.DataLocation)
		appendAccounts(viewer.SendAccounts, rec.DataLocation)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

// transactionNode mirrors one accountHistoryEntries node.
type transactionNode struct {
	Category  string `json:"category"`
	Title     string `json:"title"`
	CreatedAt string `json:"createdAt"`
	Amount    struct {
		Currency string `json:"currency"`
		Value    string `json:"value"`
	} `json:"amount"`
	Details struct {
		CryptoSendRecipient struct {
			Address string `json:"address"`
		} `json:"cryptoSendRecipient"`
		TransactionURL string `json:"transactionUrl"`
		PaymentMethod  string `json:"paymentMethod"`
		To             string `json:"to"`
		From           string `json:"from"`
	} `json:"details"`
}

type accountHistory struct {
	AccountHistoryEntries struct {
		Edges []struct {
			Node transactionNode `json:"node"`
		} `json:"edges"`
	} `json:"accountHistoryEntries"`
}

// transactionsResponse covers both response shapes: most operations
// nest the account under data.viewer.accountByUuidV2, while
// usePaginatedAccount stores it under data.node.
type transactionsResponse struct {
	Data struct {
		Viewer *struct {
			AccountByUUIDV2 accountHistory `json:"accountByUuidV2"`
		} `json:"viewer"`
		Node accountHistory `json:"node"`
	} `json:"data"`
}

const notApplicable = "N/A"

func transactionRecord(node transactionNode, logger *slog.Logger) artifact.Record {
	address := notApplicable
	transactionURL := notApplicable
	paymentMethod := notApplicable
	withdrawTo := notApplicable
	depositFrom := notApplicable

	switch node.Category {
	case "CRYPTO_SEND", "CRYPTO_RECEIVE":
		// Receive entries carry no recipient details.
		address = node.Details.CryptoSendRecipient.Address
		if address == "" {
			address = "Unknown"
		}
		if node.Details.TransactionURL != "" {
			transactionURL = node.Details.TransactionURL
		}
	case "BUY", "SELL", "CONVERT":
		if node.Details.PaymentMethod != "" {
			paymentMethod = node.Details.PaymentMethod
		}
	case "FIAT_WITHDRAWAL", "FIAT_DEPOSIT", "USER_RECEIVE":
		if node.Details.To != "" {
			withdrawTo = node.Details.To
		}
		if node.Details.From != "" {
			depositFrom = node.Details.From
		}
	case "UNSTAKING", "STAKING", "INTEREST":
	default:
		logger.Warn("unknown transaction category", "category", node.Category)
	}

	return artifact.Record{
		"Created Date/Time": node.CreatedAt,
		"Category":          node.Category,
		"Type":              node.Title,
		"Currency":          node.Amount.Currency,
		"Value":             node.Amount.Value,
		"Address":           address,
		"Transaction URL":   transactionURL,
		"Payment Method":    paymentMethod,
		"Withdraw To":       withdrawTo,
		"Deposit From":      depositFrom,
		"Source":            "Cache",
	}
}

func transactions(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	var results artifact.Result

	for _, pattern := range transactionPatterns {
		err := p.IterateCache(profile.MatchRegexp(pattern), func(rec profile.CacheRecord) error {
			var response transactionsResponse
			if err := json.Unmarshal(rec.Data, &response); err != nil {
				logger.Warn("unparseable transactions in cache", "location", rec.DataLocation, "error", err)
				return nil
			}
			account := response.Data.Node
			if response.Data.Viewer != nil {
				account = response.Data.Viewer.AccountByUUIDV2
			}
			for _, edge := range account.AccountHistoryEntries.Edges {
				record := transactionRecord(edge.Node, logger)
				record["Data Location"] = rec.DataLocation
				results = append(results, record)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
