package algolia

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestStaticSecrets(t *testing.T) {
	secrets, err := StaticSecrets("test-app-id", "test-api-key")()
	if err != nil {
		t.Errorf("StaticSecrets should not return error, got: %v", err)
	}
	if secrets.AppID != "test-app-id" {
		t.Errorf("Expected AppID test-app-id, got %s", secrets.AppID)
	}
	if secrets.WriteApiKey != "test-api-key" {
		t.Errorf("Expected WriteApiKey test-api-key, got %s", secrets.WriteApiKey)
	}
}

func TestEnvSecrets(t *testing.T) {
	tests := []struct {
		name        string
		appID       string
		apiKey      string
		expectError bool
	}{
		{name: "valid secrets", appID: "test-app-id", apiKey: "test-api-key"},
		{name: "missing app id", apiKey: "test-api-key", expectError: true},
		{name: "missing api key", appID: "test-app-id", expectError: true},
		{name: "both missing", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ALGOLIA_APP_ID", tt.appID)
			t.Setenv("ALGOLIA_API_KEY", tt.apiKey)

			secrets, err := EnvSecrets()()
			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
			if secrets.AppID != tt.appID || secrets.WriteApiKey != tt.apiKey {
				t.Errorf("Unexpected secrets %+v", secrets)
			}
		})
	}
}

func TestClientInitializationErrors(t *testing.T) {
	tests := []struct {
		name         string
		fetchSecrets FetchSecrets
	}{
		{
			name: "fetch error",
			fetchSecrets: func() (Secrets, error) {
				return Secrets{}, errors.New("fetch failed")
			},
		},
		{name: "empty app id", fetchSecrets: StaticSecrets("", "test-key")},
		{name: "empty api key", fetchSecrets: StaticSecrets("test-app", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.fetchSecrets)
			ctx := context.Background()

			if err := client.BatchSaveObjects(ctx, "test-index", []map[string]interface{}{{"objectID": "1"}}); err == nil {
				t.Error("Expected BatchSaveObjects to return initialization error")
			}
			if err := client.BatchDeleteObjects(ctx, "test-index", []string{"1"}); err == nil {
				t.Error("Expected BatchDeleteObjects to return initialization error")
			}
		})
	}
}

func TestClientEmptyBatches(t *testing.T) {
	var calls int32
	client := NewClient(func() (Secrets, error) {
		atomic.AddInt32(&calls, 1)
		return Secrets{}, errors.New("should not be called")
	})
	ctx := context.Background()

	if err := client.BatchSaveObjects(ctx, "test-index", nil); err != nil {
		t.Errorf("BatchSaveObjects with nil slice should return nil, got: %v", err)
	}
	if err := client.BatchDeleteObjects(ctx, "test-index", []string{}); err != nil {
		t.Errorf("BatchDeleteObjects with empty slice should return nil, got: %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected empty batches not to fetch secrets, got %d calls", calls)
	}
}

func TestClientErrorCaching(t *testing.T) {
	var calls int32
	client := NewClient(func() (Secrets, error) {
		atomic.AddInt32(&calls, 1)
		return Secrets{}, errors.New("simulated fetch error")
	})

	if calls != 0 {
		t.Errorf("Expected fetchSecrets not to be called during construction, got %d calls", calls)
	}

	ctx := context.Background()
	err1 := client.BatchSaveObjects(ctx, "test-index", []map[string]interface{}{{"objectID": "1"}})
	err2 := client.BatchDeleteObjects(ctx, "test-index", []string{"1"})
	if err1 == nil || err2 == nil {
		t.Fatal("Expected both calls to fail")
	}
	if err1.Error() != err2.Error() {
		t.Errorf("Expected same error messages, got '%s' and '%s'", err1.Error(), err2.Error())
	}
	if calls != 1 {
		t.Errorf("Expected fetchSecrets to be called once, got %d calls", calls)
	}
}

func TestClientConcurrentAccess(t *testing.T) {
	var calls int32
	client := NewClient(func() (Secrets, error) {
		atomic.AddInt32(&calls, 1)
		return Secrets{AppID: "test-app"}, nil
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = client.BatchDeleteObjects(ctx, "test-index", []string{"1"})
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected fetchSecrets to be called exactly once, got %d calls", got)
	}
}
