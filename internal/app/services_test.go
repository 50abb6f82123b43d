package app

import (
	"testing"

	"github.com/webtech-network/autograder-sub001/internal/config"
)

func TestBuildRepository_Memory(t *testing.T) {
	repo, closer, err := buildRepository(config.RepositoryConfig{Driver: "memory"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo == nil {
		t.Fatal("expected a non-nil repository")
	}
	if closer != nil {
		t.Error("memory repository should have no closer")
	}
}

func TestBuildRepository_UnknownDriver(t *testing.T) {
	_, _, err := buildRepository(config.RepositoryConfig{Driver: "postgres"})
	if err == nil {
		t.Fatal("expected an error for an unknown repository driver")
	}
}

func TestBuildFeedback_None(t *testing.T) {
	grader, producer, err := buildFeedback(config.FeedbackConfig{Provider: "none"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if grader != nil || producer != nil {
		t.Error("provider \"none\" should disable both the essay grader and the feedback producer")
	}
}

func TestBuildFeedback_Default(t *testing.T) {
	grader, producer, err := buildFeedback(config.FeedbackConfig{Provider: "default"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if grader != nil {
		t.Error("provider \"default\" has no essay grader, only the deterministic formatter")
	}
	if producer == nil {
		t.Fatal("expected a non-nil feedback producer")
	}
}

func TestBuildFeedback_UnknownProvider(t *testing.T) {
	_, _, err := buildFeedback(config.FeedbackConfig{Provider: "carrier-pigeon"})
	if err == nil {
		t.Fatal("expected an error for an unknown feedback provider")
	}
}

func TestBuildSandboxPool_EmptyConfig(t *testing.T) {
	pool, err := buildSandboxPool(map[string]config.LanguagePoolConfig{})
	if err != nil {
		t.Skipf("sandbox pool construction requires a docker runtime in this environment: %v", err)
	}
	if pool == nil {
		t.Fatal("expected a non-nil pool")
	}
}
