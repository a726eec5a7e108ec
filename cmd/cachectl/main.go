package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/iTrooz/proximate/internal/cache"
	"github.com/iTrooz/proximate/internal/cache/factory"
	"github.com/iTrooz/proximate/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const usage = `usage: cachectl [-config path] <command> [args]

commands:
  count                         number of cached items
  keys  [page] [per_page]       a page of cache keys
  items [page] [per_page] [-r]  a page of cache items, -r includes responses
  read  <key>                   one cache item
  expire <key>                  delete one cache item
`

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()
	store, closer, err := factory.Open(ctx, cfg.Cache)
	if err != nil {
		logrus.Fatalf("Failed to open cache: %v", err)
	}
	defer func() { _ = closer.Close() }()

	if err := run(ctx, store.Adapter, flag.Args(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "cachectl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, adapter cache.Adapter, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command\n%s", usage)
	}

	switch args[0] {
	case "count":
		count, err := adapter.CountCacheItems(ctx)
		if err != nil {
			return err
		}
		return printYAML(out, map[string]int{"count": count})

	case "keys":
		page, perPage, _, err := pageArgs(args[1:])
		if err != nil {
			return err
		}
		keys, err := adapter.PageOfCacheKeys(ctx, page, perPage)
		if err != nil {
			return err
		}
		return printYAML(out, keys)

	case "items":
		page, perPage, withResponse, err := pageArgs(args[1:])
		if err != nil {
			return err
		}
		items, err := adapter.PageOfCacheItems(ctx, page, perPage, withResponse)
		if err != nil {
			return err
		}
		views := make([]itemView, 0, len(items))
		for _, item := range items {
			views = append(views, newItemView(item))
		}
		return printYAML(out, views)

	case "read":
		if len(args) != 2 {
			return fmt.Errorf("read needs exactly one key")
		}
		entry, err := adapter.ReadCacheItem(ctx, args[1])
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("no cache item for key %s", args[1])
		}
		return printYAML(out, newItemView(entry))

	case "expire":
		if len(args) != 2 {
			return fmt.Errorf("expire needs exactly one key")
		}
		return adapter.ExpireCacheItem(ctx, args[1])

	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

// itemView prints a cache entry with its response as text
type itemView struct {
	URL      string `yaml:"url"`
	Method   string `yaml:"method"`
	Key      string `yaml:"key"`
	Response string `yaml:"response,omitempty"`
}

func newItemView(entry *cache.Entry) itemView {
	return itemView{
		URL:      entry.URL,
		Method:   entry.Method,
		Key:      entry.Key,
		Response: string(entry.Response),
	}
}

// pageArgs parses "[page] [per_page] [-r]"
func pageArgs(args []string) (page, perPage int, withResponse bool, err error) {
	page, perPage = 1, 20
	var positional []string
	for _, arg := range args {
		if arg == "-r" {
			withResponse = true
			continue
		}
		positional = append(positional, arg)
	}
	if len(positional) > 2 {
		return 0, 0, false, fmt.Errorf("too many arguments")
	}
	if len(positional) > 0 {
		if page, err = strconv.Atoi(positional[0]); err != nil {
			return 0, 0, false, fmt.Errorf("invalid page %q: %w", positional[0], err)
		}
	}
	if len(positional) > 1 {
		if perPage, err = strconv.Atoi(positional[1]); err != nil {
			return 0, 0, false, fmt.Errorf("invalid per_page %q: %w", positional[1], err)
		}
	}
	return page, perPage, withResponse, nil
}

func printYAML(out io.Writer, v any) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to print result: %w", err)
	}
	return enc.Close()
}
