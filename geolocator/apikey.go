// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package geolocator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

const (
	// APIKeyEnv is the environment variable holding the Maps API key.
	APIKeyEnv = "GOOGLE_MAPS_API_KEY"

	// DefaultAPIKeyName is the display name looked up through ADC.
	DefaultAPIKeyName = "Geolocator Geocoding Key"
)

// ErrNoAPIKey is returned when no source provides an API key.
var ErrNoAPIKey = errors.New("no Google Maps API key available")

// ResolveAPIKey returns configKey when set, then the GOOGLE_MAPS_API_KEY
// environment variable, then the key named keyName in the project of the
// Application Default Credentials.
func ResolveAPIKey(ctx context.Context, configKey, keyName string) (string, error) {
	if configKey != "" {
		return configKey, nil
	}

	if apiKey := os.Getenv(APIKeyEnv); apiKey != "" {
		return apiKey, nil
	}

	log.Printf("%s is not set. Attempting to retrieve via ADC...", APIKeyEnv)

	apiKey, err := apiKeyFromADC(ctx, keyName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoAPIKey, err)
	}

	log.Println("✅ Successfully retrieved Google Maps API Key via ADC")

	return apiKey, nil
}

func apiKeyFromADC(ctx context.Context, keyName string) (string, error) {
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return "", fmt.Errorf("finding default credentials: %w", err)
	}

	projectID := creds.ProjectID
	if projectID == "" {
		projectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}

	if projectID == "" {
		return "", errors.New("no project found in credentials or GOOGLE_CLOUD_PROJECT")
	}

	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	it := client.ListKeys(ctx, &apikeyspb.ListKeysRequest{
		Parent: fmt.Sprintf("projects/%s/locations/global", projectID),
	})

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.DisplayName != keyName {
			continue
		}

		// ListKeys redacts the secret
		log.Printf("Found key resource '%s', retrieving secret...", key.Name)

		resp, err := client.GetKeyString(ctx, &apikeyspb.GetKeyStringRequest{Name: key.Name})
		if err != nil {
			return "", fmt.Errorf("getting key string: %w", err)
		}

		if resp.KeyString == "" {
			return "", fmt.Errorf("key '%s' has an empty key string", keyName)
		}

		return resp.KeyString, nil
	}

	return "", fmt.Errorf("key with display name '%s' not found in project %s", keyName, projectID)
}
