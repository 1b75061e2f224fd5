// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

package coinbase

import (
	"log/slog"
	"testing"

	"github.com/CH-CLARK/mister-skinnylegs/lib/profile"
	"github.com/CH-CLARK/mister-skinnylegs/lib/profile/profiletest"
)

var discard = slog.New(slog.DiscardHandler)

func TestPaymentMethods(t *testing.T) {
	body := `{"data": {"viewer": {"paymentMethodsV2": [
		{"uuid": "pm-1", "type": "BANK", "name": "Current account", "currency": "GBP",
		 "primaryBuy": true, "primarySell": false, "instantBuy": true, "instantSell": false,
		 "createdAt": "2023-06-01T00:00:00Z", "updatedAt": "2023-06-02T00:00:00Z", "verified": true}]}}}`

	p := &profiletest.Profile{
		Cache: []profile.CacheRecord{
			{
				URL:          "https://www.coinbase.com/graphql/query?&operationName=usePaymentMethodsQuery",
				Data:         []byte(body),
				DataLocation: "f_000001@0",
			},
			// Cached twice: the identical entry must not repeat.
			{
				URL:          "https://www.coinbase.com/graphql/query?&operationName=usePaymentMethodsQuery",
				Data:         []byte(body),
				DataLocation: "f_000002@0",
			},
		},
	}

	result, err := paymentMethods(p, discard, nil)
	if err != nil {
		t.Fatalf("paymentMethods: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("got %d records, want 1: %v", len(result), result)
	}
	rec := result[0]
	if rec["UUID"] != "pm-1" || rec["Name"] != "Current account" || rec["Verified"] != true {
		t.Errorf("payment method = %v", rec)
	}
}

func TestUserDetails(t *testing.T) {
	p := &profiletest.Profile{
		Cache: []profile.CacheRecord{
			{
				URL: "https://www.coinbase.com/graphql/query?&operationName=userQuery",
				Data: []byte(`{"data": {"viewer": {"userProperties": {
					"email": "ada@example.com",
					"personalDetails": {
						"dateOfBirth": "1815-12-10",
						"legalName": {"firstName": "Ada", "lastName": "Lovelace"},
						"address": {"line1": "12 Analytical Way", "line2": "Flat 2",
							"city": "London", "postalCode": "N1 9GU",
							"country": {"code": "GB"}}}}}}}`),
				DataLocation: "f_000003@0",
			},
		},
	}

	result, err := userDetails(p, discard, nil)
	if err != nil {
		t.Fatalf("userDetails: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("got %d records, want 1: %v", len(result), result)
	}
	rec := result[0]
	if rec["Email"] != "ada@example.com" || rec["First Name"] != "Ada" {
		t.Errorf("user details = %v", rec)
	}
	if rec["Address"] != "12 Analytical Way Flat 2 London N1 9GU GB" {
		t.Errorf("address = %v", rec["Address"])
	}
}

func TestBalances(t *testing.T) {
	sharedAccount := `{"type": "WALLET",
		"availableBalance": {"currency": "BTC", "value": "0.25"},
		"assetOrFiatCurrency": {"asset": {"name": "Bitcoin"}}}`
	p := &profiletest.Profile{
		Cache: []profile.CacheRecord{
			{
				URL: "https://www.coinbase.com/graphql/query?&operationName=SendReceivePreloadable",
				Data: []byte(`{"data": {"viewer": {
					"receiveAccounts": [` + sharedAccount + `],
					"sendAccounts": [` + sharedAccount + `, {"type": "FIAT",
						"availableBalance": {"currency": "GBP", "value": "50.00"},
						"assetOrFiatCurrency": {"asset": {"name": "Pound Sterling"}}}]}}}`),
				DataLocation: "f_000004@0",
			},
		},
	}

	result, err := balances(p, discard, nil)
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	// The account listed under both receive and send dedupes.
	if len(result) != 2 {
		t.Fatalf("got %d records, want 2: %v", len(result), result)
	}
	if result[0]["Name"] != "Bitcoin" || result[0]["Balance"] != "0.25" {
		t.Errorf("first balance = %v", result[0])
	}
	if result[1]["Type"] != "FIAT" || result[1]["Currency"] != "GBP" {
		t.Errorf("second balance = %v", result[1])
	}
}

func TestTransactions(t *testing.T) {
	p := &profiletest.Profile{
		Cache: []profile.CacheRecord{
			{
				URL: "https://www.coinbase.com/graphql/query?&operationName=AccountActivityRedesignedQuery",
				Data: []byte(`{"data": {"viewer": {"accountByUuidV2": {"accountHistoryEntries": {"edges": [
					{"node": {"category": "CRYPTO_SEND", "title": "Sent Bitcoin",
						"createdAt": "2024-01-10T08:00:00Z",
						"amount": {"currency": "BTC", "value": "-0.1"},
						"details": {"cryptoSendRecipient": {"address": "bc1qexample"},
							"transactionUrl": "https://mempool.example/tx/abc"}}},
					{"node": {"category": "BUY", "title": "Bought Bitcoin",
						"createdAt": "2024-01-09T08:00:00Z",
						"amount": {"currency": "BTC", "value": "0.1"},
						"details": {"paymentMethod": "Current account"}}}]}}}}}`),
				DataLocation: "f_000005@0",
			},
			// usePaginatedAccount nests the account under data.node.
			{
				URL: "https://www.coinbase.com/graphql/query?&operationName=usePaginatedAccount",
				Data: []byte(`{"data": {"node": {"accountHistoryEntries": {"edges": [
					{"node": {"category": "FIAT_DEPOSIT", "title": "Deposited funds",
						"createdAt": "2024-01-08T08:00:00Z",
						"amount": {"currency": "GBP", "value": "100.00"},
						"details": {"from": "Current account"}}}]}}}}`),
				DataLocation: "f_000006@0",
			},
		},
	}

	result, err := transactions(p, discard, nil)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("got %d records, want 3: %v", len(result), result)
	}

	send := result[0]
	if send["Address"] != "bc1qexample" || send["Transaction URL"] != "https://mempool.example/tx/abc" {
		t.Errorf("crypto send record = %v", send)
	}
	if send["Payment Method"] != "N/A" {
		t.Errorf("crypto send payment method = %v", send["Payment Method"])
	}

	buy := result[1]
	if buy["Payment Method"] != "Current account" || buy["Address"] != "N/A" {
		t.Errorf("buy record = %v", buy)
	}

	deposit := result[2]
	if deposit["Deposit From"] != "Current account" || deposit["Withdraw To"] != "N/A" {
		t.Errorf("deposit record = %v", deposit)
	}
	if deposit["Data Location"] != "f_000006@0" {
		t.Errorf("deposit data location = %v", deposit["Data Location"])
	}
}
