package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
)

// Cutover parity checker: replays the auth surface against both the Go API
// and the legacy Laravel API and reports contract diffs. Token values and
// timestamps always differ between backends, so targets list the volatile
// fields to blank out before comparing.

type target struct {
	Method   string            `json:"method"`
	Path     string            `json:"path"`
	Body     json.RawMessage   `json:"body,omitempty"`
	Auth     string            `json:"auth,omitempty"` // "", "access" or "refresh"
	Ignore   []string          `json:"ignore,omitempty"`
	Critical bool              `json:"critical"`
	Headers  map[string]string `json:"headers,omitempty"`
}

type targetsFile struct {
	Login   json.RawMessage `json:"login"`
	Targets []target        `json:"targets"`
}

type session struct {
	access  string
	refresh string
}

type comparison struct {
	Target         target
	LegacyStatus   int
	GoStatus       int
	StatusMatch    bool
	BodyMatch      bool
	Error          error
	DurationGo     time.Duration
	DurationLegacy time.Duration
}

func main() {
	var (
		goBase      string
		legacyBase  string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&goBase, "go-base", "http://localhost:8080", "Go API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:8000", "Legacy Laravel API base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "shadow_compare", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	cfg, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}

	goSession, err := login(client, goBase, cfg.Login)
	if err != nil {
		log.Fatalf("go login failed: %v", err)
	}
	legacySession, err := login(client, legacyBase, cfg.Login)
	if err != nil {
		log.Fatalf("legacy login failed: %v", err)
	}

	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)

	for _, t := range cfg.Targets {
		comp := compareTarget(client, goBase, legacyBase, goSession, legacySession, t)
		if comp.Error != nil || !comp.StatusMatch || !comp.BodyMatch {
			if t.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) (*targetsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg targetsFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	if len(cfg.Login) == 0 {
		return nil, fmt.Errorf("no login credentials defined in %s", path)
	}
	return &cfg, nil
}

func login(client *http.Client, base string, credentials json.RawMessage) (*session, error) {
	resp, _, err := doRequest(client, base, http.MethodPost, "/api/auth/login", credentials, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login returned %d", resp.StatusCode)
	}

	var payload struct {
		Data struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Data.AccessToken == "" {
		return nil, fmt.Errorf("login response carried no access_token")
	}
	return &session{access: payload.Data.AccessToken, refresh: payload.Data.RefreshToken}, nil
}

func compareTarget(client *http.Client, goBase, legacyBase string, goSess, legacySess *session, tgt target) comparison {
	comp := comparison{Target: tgt}

	goResp, goDur, goErr := doRequest(client, goBase, tgt.Method, tgt.Path, tgt.Body, bearerFor(goSess, tgt.Auth), tgt.Headers)
	legacyResp, legacyDur, legacyErr := doRequest(client, legacyBase, tgt.Method, tgt.Path, tgt.Body, bearerFor(legacySess, tgt.Auth), tgt.Headers)
	comp.DurationGo = goDur
	comp.DurationLegacy = legacyDur

	if goErr != nil {
		comp.Error = fmt.Errorf("go request failed: %w", goErr)
		return comp
	}
	if legacyErr != nil {
		comp.Error = fmt.Errorf("legacy request failed: %w", legacyErr)
		return comp
	}

	comp.GoStatus = goResp.StatusCode
	comp.LegacyStatus = legacyResp.StatusCode
	comp.StatusMatch = comp.GoStatus == comp.LegacyStatus

	defer goResp.Body.Close()
	defer legacyResp.Body.Close()

	goBody, err := io.ReadAll(goResp.Body)
	if err != nil {
		comp.Error = fmt.Errorf("read go body: %w", err)
		return comp
	}
	legacyBody, err := io.ReadAll(legacyResp.Body)
	if err != nil {
		comp.Error = fmt.Errorf("read legacy body: %w", err)
		return comp
	}

	comp.BodyMatch = bodiesEqual(goBody, legacyBody, tgt.Ignore)

	return comp
}

func bearerFor(sess *session, mode string) string {
	if sess == nil {
		return ""
	}
	switch mode {
	case "access":
		return sess.access
	case "refresh":
		return sess.refresh
	default:
		return ""
	}
}

func doRequest(client *http.Client, base, method, path string, body json.RawMessage, bearer string, headers map[string]string) (*http.Response, time.Duration, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp, time.Since(start), nil
}

func bodiesEqual(a, b []byte, ignore []string) bool {
	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b))
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}

	blank := map[string]struct{}{
		"token":         {},
		"access_token":  {},
		"refresh_token": {},
		"created_at":    {},
		"updated_at":    {},
		"deleted_at":    {},
	}
	for _, field := range ignore {
		blank[field] = struct{}{}
	}

	normalize(&aj, blank)
	normalize(&bj, blank)
	return reflect.DeepEqual(aj, bj)
}

func normalize(v *interface{}, blank map[string]struct{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k, v2 := range val {
			if _, ok := blank[k]; ok {
				val[k] = nil
				continue
			}
			normalize(&v2, blank)
			val[k] = v2
		}
	case []interface{}:
		for i, v2 := range val {
			normalize(&v2, blank)
			val[i] = v2
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func printReport(results []comparison) {
	fmt.Println("Shadow Compare Report")
	fmt.Println("======================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
		fmt.Printf("  Go Status: %d (%s)\n", res.GoStatus, res.DurationGo)
		fmt.Printf("  Legacy Status: %d (%s)\n", res.LegacyStatus, res.DurationLegacy)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		} else {
			fmt.Printf("  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
		}
	}
}
