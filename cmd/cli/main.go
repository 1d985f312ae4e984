package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"opsboard/internal/metrics"
	"opsboard/internal/syncer"
	"opsboard/pkg/models"
)

const defaultBaseURL = "http://localhost:8080"

type tokenData struct {
	Token string `json:"token"`
}

type authResponse struct {
	Token string `json:"token"`
}

func main() {
	global := flag.NewFlagSet("opsboard", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	if len(args) > 1 {
		sub = args[1]
	}

	client := &http.Client{Timeout: 15 * time.Second}

	switch cmd {
	case "auth":
		handleAuth(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "category":
		handleCategory(ctx, *baseURL, *tokenPath, sub, args[2:])
	case "link":
		handleLink(ctx, *baseURL, *tokenPath, sub, args[2:])
	case "metrics":
		handleMetrics(ctx, sub, args[2:])
	case "events":
		handleEvents(*baseURL, sub, args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *email == "" || *password == "" {
			log.Fatal("email and password are required")
		}

		payload := map[string]string{"email": *email, "password": *password}
		var resp authResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/login", "", payload, &resp); err != nil {
			log.Fatalf("login failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("logged in")
	case "register":
		fs := flag.NewFlagSet("auth register", flag.ExitOnError)
		username := fs.String("username", "", "username")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *username == "" || *email == "" || *password == "" {
			log.Fatal("username, email, and password are required")
		}

		payload := map[string]string{"username": *username, "email": *email, "password": *password}
		var resp authResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/register", "", payload, &resp); err != nil {
			log.Fatalf("register failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("registered and logged in")
	case "logout":
		if err := clearToken(tokenPath); err != nil {
			log.Fatalf("logout failed: %v", err)
		}
		fmt.Println("logged out")
	default:
		log.Fatal("usage: opsboard auth <login|register|logout>")
	}
}

// categoryCollection loads the section's categories into an optimistic
// collection backed by the board API.
func categoryCollection(ctx context.Context, baseURL, tokenPath, section string) *syncer.Collection[models.Category] {
	store := syncer.NewClient(baseURL, mustToken(tokenPath))
	col := syncer.NewCollection(store.Categories())
	if _, err := col.Refresh(ctx, map[string]string{"section": section}); err != nil {
		log.Fatalf("load categories: %v", err)
	}
	return col
}

func handleCategory(ctx context.Context, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "add":
		fs := flag.NewFlagSet("category add", flag.ExitOnError)
		section := fs.String("section", "inicio", "section the category belongs to")
		name := fs.String("name", "", "category name")
		icon := fs.String("icon", "", "icon reference")
		color := fs.String("color", "", "color reference")
		externalURL := fs.String("url", "", "external link")
		csvURL := fs.String("csv", "", "CSV feed link (goals section)")
		_ = fs.Parse(args)
		if *name == "" {
			log.Fatal("name is required")
		}

		col := categoryCollection(ctx, baseURL, tokenPath, *section)
		rec := col.Create(ctx, models.Category{
			Name:        *name,
			Section:     *section,
			Icon:        *icon,
			Color:       *color,
			ExternalURL: *externalURL,
			CSVURL:      *csvURL,
		})
		fmt.Printf("created locally as %d (temporary)\n", rec.ID)
		col.Wait()
		printJSON(col.Items())
	case "set":
		fs := flag.NewFlagSet("category set", flag.ExitOnError)
		section := fs.String("section", "inicio", "section the category belongs to")
		id := fs.Int64("id", 0, "category id")
		field := fs.String("field", "", "field to update (name|icon|color|external_url|csv_url)")
		value := fs.String("value", "", "new value")
		_ = fs.Parse(args)
		if *id == 0 || *field == "" {
			log.Fatal("id and field are required")
		}

		col := categoryCollection(ctx, baseURL, tokenPath, *section)
		if !col.UpdateField(ctx, *id, *field, *value) {
			log.Fatalf("no category %d or field %q not editable", *id, *field)
		}
		col.Wait()
		printJSON(col.Items())
	case "remove":
		fs := flag.NewFlagSet("category remove", flag.ExitOnError)
		section := fs.String("section", "inicio", "section the category belongs to")
		id := fs.Int64("id", 0, "category id")
		_ = fs.Parse(args)
		if *id == 0 {
			log.Fatal("id is required")
		}

		col := categoryCollection(ctx, baseURL, tokenPath, *section)
		col.Remove(ctx, *id)
		col.Wait()
		printJSON(col.Items())
	case "list":
		fs := flag.NewFlagSet("category list", flag.ExitOnError)
		section := fs.String("section", "inicio", "section to list")
		_ = fs.Parse(args)

		col := categoryCollection(ctx, baseURL, tokenPath, *section)
		printJSON(col.Items())
	default:
		log.Fatal("usage: opsboard category <add|set|remove|list>")
	}
}

func linkCollection(ctx context.Context, baseURL, tokenPath string, filter map[string]string) *syncer.Collection[models.Link] {
	store := syncer.NewClient(baseURL, mustToken(tokenPath))
	col := syncer.NewCollection(store.Links())
	if _, err := col.Refresh(ctx, filter); err != nil {
		log.Fatalf("load links: %v", err)
	}
	return col
}

func handleLink(ctx context.Context, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "add":
		fs := flag.NewFlagSet("link add", flag.ExitOnError)
		categoryID := fs.Int64("category-id", 0, "owning category id")
		title := fs.String("title", "", "link title")
		linkURL := fs.String("url", "", "link target")
		_ = fs.Parse(args)
		if *categoryID == 0 || *title == "" || *linkURL == "" {
			log.Fatal("category-id, title and url are required")
		}

		col := linkCollection(ctx, baseURL, tokenPath, map[string]string{
			"category_id": strconv.FormatInt(*categoryID, 10),
		})
		rec := col.Create(ctx, models.Link{
			Title:      *title,
			URL:        *linkURL,
			CategoryID: *categoryID,
		})
		fmt.Printf("created locally as %d (temporary)\n", rec.ID)
		col.Wait()
		printJSON(col.Items())
	case "set":
		fs := flag.NewFlagSet("link set", flag.ExitOnError)
		categoryID := fs.Int64("category-id", 0, "owning category id")
		id := fs.Int64("id", 0, "link id")
		field := fs.String("field", "", "field to update (title|url)")
		value := fs.String("value", "", "new value")
		_ = fs.Parse(args)
		if *categoryID == 0 || *id == 0 || *field == "" {
			log.Fatal("category-id, id and field are required")
		}

		col := linkCollection(ctx, baseURL, tokenPath, map[string]string{
			"category_id": strconv.FormatInt(*categoryID, 10),
		})
		if !col.UpdateField(ctx, *id, *field, *value) {
			log.Fatalf("no link %d or field %q not editable", *id, *field)
		}
		col.Wait()
		printJSON(col.Items())
	case "remove":
		fs := flag.NewFlagSet("link remove", flag.ExitOnError)
		categoryID := fs.Int64("category-id", 0, "owning category id")
		id := fs.Int64("id", 0, "link id")
		_ = fs.Parse(args)
		if *categoryID == 0 || *id == 0 {
			log.Fatal("category-id and id are required")
		}

		col := linkCollection(ctx, baseURL, tokenPath, map[string]string{
			"category_id": strconv.FormatInt(*categoryID, 10),
		})
		col.Remove(ctx, *id)
		col.Wait()
		printJSON(col.Items())
	case "list":
		fs := flag.NewFlagSet("link list", flag.ExitOnError)
		section := fs.String("section", "", "filter by section")
		categoryID := fs.Int64("category-id", 0, "filter by category")
		_ = fs.Parse(args)

		filter := map[string]string{}
		if *categoryID != 0 {
			filter["category_id"] = strconv.FormatInt(*categoryID, 10)
		}
		if *section != "" {
			filter["section"] = *section
		}
		col := linkCollection(ctx, baseURL, tokenPath, filter)
		printJSON(col.Items())
	default:
		log.Fatal("usage: opsboard link <add|set|remove|list>")
	}
}

func handleMetrics(ctx context.Context, sub string, args []string) {
	switch sub {
	case "show":
		fs := flag.NewFlagSet("metrics show", flag.ExitOnError)
		feedURL := fs.String("url", "", "CSV feed URL")
		team := fs.String("team", "", "team name")
		_ = fs.Parse(args)
		if *feedURL == "" || *team == "" {
			log.Fatal("url and team are required")
		}

		fetcher := metrics.NewFetcher(nil)
		records, err := fetcher.Fetch(ctx, *feedURL, *team)
		if err != nil {
			log.Fatalf("metrics failed: %v", err)
		}
		if len(records) == 0 {
			fmt.Printf("no rows for team %q\n", *team)
			return
		}
		for _, rec := range records {
			fmt.Printf("%-20s expected=%.1f actual=%.1f progress=%.1f%%", rec.Team, rec.Expected, rec.Actual, rec.Percent)
			if rec.Note != "" {
				fmt.Printf("  (%s)", rec.Note)
			}
			fmt.Println()
		}
	default:
		log.Fatal("usage: opsboard metrics show -url <csv-url> -team <name>")
	}
}

func handleEvents(baseURL, sub string, args []string) {
	switch sub {
	case "listen":
		fs := flag.NewFlagSet("events listen", flag.ExitOnError)
		addr := fs.String("addr", "127.0.0.1:7070", "TCP event server address")
		pretty := fs.Bool("pretty", true, "pretty print JSON events")
		_ = fs.Parse(args)
		for {
			if err := runEventsTCP(*addr, *pretty); err != nil {
				log.Printf("[events] disconnected: %v", err)
			}
			time.Sleep(1 * time.Second)
		}
	case "subscribe":
		fs := flag.NewFlagSet("events subscribe", flag.ExitOnError)
		wsURL := fs.String("ws", "", "WebSocket URL (defaults to /ws on API host)")
		_ = fs.Parse(args)

		endpoint := *wsURL
		if endpoint == "" {
			var err error
			endpoint, err = websocketURL(baseURL, "/ws")
			if err != nil {
				log.Fatalf("ws url: %v", err)
			}
		}
		if err := runWebSocket(endpoint); err != nil {
			log.Fatalf("subscribe failed: %v", err)
		}
	default:
		log.Fatal("usage: opsboard events <listen|subscribe>")
	}
}

func runEventsTCP(addr string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[events] connected to %s", addr)
	reader := bufio.NewScanner(conn)
	for reader.Scan() {
		line := reader.Bytes()
		if !pretty {
			fmt.Println(string(line))
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			fmt.Println(string(line))
			continue
		}
		b, _ := json.MarshalIndent(obj, "", "  ")
		fmt.Println(string(b))
	}
	if err := reader.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

func runWebSocket(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("[events] connected to %s", wsURL)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		fmt.Println(string(msg))
	}
}

func doJSON(ctx context.Context, client *http.Client, method, endpoint, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.opsboard-token.json"
	}
	return filepath.Join(home, ".opsboard", "token.json")
}

func saveToken(path, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tokenData{Token: token}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return "", err
	}
	return strings.TrimSpace(td.Token), nil
}

func mustToken(path string) string {
	token, err := readToken(path)
	if err != nil {
		log.Fatalf("token not found, please login: %v", err)
	}
	if token == "" {
		log.Fatal("token empty, please login")
	}
	return token
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}

func printUsage() {
	fmt.Println("opsboard <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|register|logout")
	fmt.Println("  category add|set|remove|list")
	fmt.Println("  link add|set|remove|list")
	fmt.Println("  metrics show")
	fmt.Println("  events listen|subscribe")
}
