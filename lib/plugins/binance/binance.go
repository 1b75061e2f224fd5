// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package binance recovers Binance account details and wallet
// balances from cached API responses.
package binance

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
	balancesPattern    = regexp.MustCompile(`binance.*?\.[A-z]{2,3}/bapi/asset/v2/private/asset-service/wallet/balance`)
	userDetailsPattern = regexp.MustCompile(`binance.*?\.[A-z]{2,3}/bapi/fiat/v3/private/cards/get-user-info`)
)

// Plugin registers the Binance artifacts.
func Plugin() catalog.Plugin {
	return catalog.Plugin{
		Origin: "github.com/CH-CLARK/mister-skinnylegs/lib/plugins/binance",
		Artifacts: []artifact.Descriptor{
			{
				Service:      "Binance",
				Name:         "Binance User Details",
				Description:  "Recovers Binance User Details records from the Cache",
				Version:      "0.1",
				Extract:      userDetails,
				Presentation: artifact.PresentationTable,
			},
			{
				Service:      "Binance",
				Name:         "Binance Balances",
				Description:  "Recovers Binance Balances records from the Cache",
				Version:      "0.1",
				Extract:      balances,
				Presentation: artifact.PresentationTable,
			},
		},
	}
}

// userInfoResponse mirrors the get-user-info API response.
type userInfoResponse struct {
	Data struct {
		FirstName         string `json:"firstName"`
		LastName          string `json:"lastName"`
		BillingAddr1      string `json:"billingAddr1"`
		BillingCity       string `json:"billingCity"`
		BillingState      string `json:"billingState"`
		BillingPostalCode string `json:"billingPostalCode"`
	} `json:"data"`
}

func userDetails(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	var results artifact.Result

	err := p.IterateCache(profile.MatchRegexp(userDetailsPattern), func(rec profile.CacheRecord) error {
		var info userInfoResponse
		if err := json.Unmarshal(rec.Data, &info); err != nil {
			logger.Warn("unparseable user info in cache", "location", rec.DataLocation, "error", err)
			return nil
		}
		data := info.Data
		results = append(results, artifact.Record{
			"First Name": data.FirstName,
			"Last Name":  data.LastName,
			"Address": strings.Join([]string{
				data.BillingAddr1, data.BillingCity, data.BillingState, data.BillingPostalCode,
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

// balancesResponse mirrors the wallet/balance API response.
type balancesResponse struct {
	Data []struct {
		AccountType   string `json:"accountType"`
		WalletName    string `json:"walletName"`
		AssetBalances []struct {
			Asset     string `json:"asset"`
			AssetName string `json:"assetName"`
			Free      any    `json:"free"`
			Locked    any    `json:"locked"`
			Freeze    any    `json:"freeze"`
		} `json:"assetBalances"`
	} `json:"data"`
}

func balances(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	var results artifact.Result

	err := p.IterateCache(profile.MatchRegexp(balancesPattern), func(rec profile.CacheRecord) error {
		var wallets balancesResponse
		if err := json.Unmarshal(rec.Data, &wallets); err != nil {
			logger.Warn("unparseable balances in cache", "location", rec.DataLocation, "error", err)
			return nil
		}
		for _, wallet := range wallets.Data {
			for _, balance := range wallet.AssetBalances {
				results = append(results, artifact.Record{
					"Account Type":   wallet.AccountType,
					"Wallet Name":    wallet.WalletName,
					"Asset":          balance.Asset,
					"Asset Name":     balance.AssetName,
					"Free Balance":   balance.Free,
					"Locked Balance": balance.Locked,
					"Frozen Balance": balance.Freeze,
					"Source":         "Cache",
					"Data Location":  rec.DataLocation,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}
