// Package main provides cogexctl, the maintenance CLI for the CoGEx service.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"cogex/backend/internal/cache"
	"cogex/backend/internal/curation"
	"cogex/backend/internal/genesets"
	"cogex/backend/internal/graph"
	"cogex/backend/pkg/config"
	"cogex/backend/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

// warmer builds gene set cache entries from the graph.
type warmer interface {
	Warm(ctx context.Context, names ...string) error
}

// graphWriter loads nodes and relations into Neo4j.
type graphWriter interface {
	EnsureSchema(ctx context.Context) int
	UpsertNodes(ctx context.Context, nodes []graph.Node) error
	UpsertRelations(ctx context.Context, rels []graph.Relation) error
}

// opener lazily opens what a command needs.
type opener interface {
	Store(ctx context.Context) (cache.Store, error)
	Warmer(ctx context.Context) (warmer, error)
	Graph(ctx context.Context) (graphWriter, error)
	Curations(ctx context.Context) (curation.Store, error)
	Close()
}

func main() {
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	o := &liveOpener{log: logger.Get()}
	err := newRootCmd(o).Execute()
	o.Close()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(o opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "cogexctl",
		Short:        "Maintenance commands for the CoGEx service",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cogexctl %s\n", version)
		},
	})

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Gene set cache operations",
	}
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "warm [source...]",
		Short: "Build missing gene set cache entries from Neo4j",
		Long:  "Build the cache entries of the named sources, or of every source and the signed target sets when none are named.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheWarm(cmd, o, args)
		},
	})
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear [source...]",
		Short: "Delete gene set cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheClear(cmd, o, args)
		},
	})
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheList(cmd, o)
		},
	})
	rootCmd.AddCommand(cacheCmd)

	curationsCmd := &cobra.Command{
		Use:   "curations",
		Short: "Curation database operations",
	}
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored curations as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCurationsExport(cmd, o)
		},
	}
	exportCmd.Flags().Int64Slice("hash", nil, "Only export curations of these statement hashes")
	curationsCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(curationsCmd)

	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Neo4j maintenance",
	}
	graphCmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Create the constraints and indexes used by the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := o.Graph(cmd.Context())
			if err != nil {
				return err
			}
			if failed := g.EnsureSchema(cmd.Context()); failed > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d schema statements failed\n", failed)
			}
			return nil
		},
	})
	uploadCmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload JSON lines files of nodes and relations",
		Long:  "Nodes are read before relations so that relation endpoints exist. Node lines hold labels and data with db_ns and db_id; relation lines hold source_ns, source_id, target_ns, target_id, rel_type and data.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraphUpload(cmd, o)
		},
	}
	uploadCmd.Flags().String("nodes", "", "Nodes file")
	uploadCmd.Flags().String("relations", "", "Relations file")
	graphCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(graphCmd)

	return rootCmd
}

func runCacheWarm(cmd *cobra.Command, o opener, sources []string) error {
	for _, name := range sources {
		if _, err := genesets.LookupSource(name); err != nil {
			return err
		}
	}
	w, err := o.Warmer(cmd.Context())
	if err != nil {
		return err
	}
	if err := w.Warm(cmd.Context(), sources...); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "cache warm")
	return nil
}

// cacheKeysFor maps source names to cache keys; no names means every key.
func cacheKeysFor(sources []string) ([]string, error) {
	if len(sources) == 0 {
		return genesets.CacheKeys(), nil
	}
	keys := make([]string, 0, len(sources))
	for _, name := range sources {
		src, err := genesets.LookupSource(name)
		if err != nil {
			return nil, err
		}
		keys = append(keys, src.CacheKey)
	}
	return keys, nil
}

func runCacheClear(cmd *cobra.Command, o opener, sources []string) error {
	keys, err := cacheKeysFor(sources)
	if err != nil {
		return err
	}
	store, err := o.Store(cmd.Context())
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := store.Delete(cmd.Context(), key); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", key)
	}
	return nil
}

func runCacheList(cmd *cobra.Command, o opener) error {
	store, err := o.Store(cmd.Context())
	if err != nil {
		return err
	}
	keys, err := store.Keys(cmd.Context())
	if err != nil {
		return err
	}
	known := make(map[string]bool)
	for _, k := range genesets.CacheKeys() {
		known[k] = true
	}
	for _, k := range keys {
		if known[k] {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (unknown)\n", k)
		}
	}
	return nil
}

func runCurationsExport(cmd *cobra.Command, o opener) error {
	hashes, _ := cmd.Flags().GetInt64Slice("hash")
	store, err := o.Curations(cmd.Context())
	if err != nil {
		return err
	}

	var list []curation.Curation
	if len(hashes) > 0 {
		list, err = store.ForHashes(cmd.Context(), hashes)
	} else {
		list, err = store.List(cmd.Context())
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for i := range list {
		if err := enc.Encode(&list[i]); err != nil {
			return err
		}
	}
	cmd.PrintErrln(strconv.Itoa(len(list)) + " curations")
	return nil
}

func runGraphUpload(cmd *cobra.Command, o opener) error {
	nodesPath, _ := cmd.Flags().GetString("nodes")
	relsPath, _ := cmd.Flags().GetString("relations")
	if nodesPath == "" && relsPath == "" {
		return fmt.Errorf("nothing to upload: set --nodes or --relations")
	}

	var nodes []graph.Node
	var rels []graph.Relation
	if nodesPath != "" {
		if err := readFile(nodesPath, func(r io.Reader) (err error) {
			nodes, err = readNodes(r)
			return err
		}); err != nil {
			return err
		}
	}
	if relsPath != "" {
		if err := readFile(relsPath, func(r io.Reader) (err error) {
			rels, err = readRelations(r)
			return err
		}); err != nil {
			return err
		}
	}

	g, err := o.Graph(cmd.Context())
	if err != nil {
		return err
	}
	if len(nodes) > 0 {
		if err := g.UpsertNodes(cmd.Context(), nodes); err != nil {
			return err
		}
	}
	if len(rels) > 0 {
		if err := g.UpsertRelations(cmd.Context(), rels); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d nodes and %d relations\n", len(nodes), len(rels))
	return nil
}

func readFile(path string, read func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := read(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// eachLine decodes every non-empty line of r into a fresh value.
func eachLine(r io.Reader, decode func(line []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := decode(line); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
	}
	return scanner.Err()
}

func readNodes(r io.Reader) ([]graph.Node, error) {
	var nodes []graph.Node
	err := eachLine(r, func(line []byte) error {
		var j graph.NodeJSON
		if err := json.Unmarshal(line, &j); err != nil {
			return err
		}
		n, err := graph.NodeFromJSON(j)
		if err != nil {
			return err
		}
		nodes = append(nodes, n)
		return nil
	})
	return nodes, err
}

func readRelations(r io.Reader) ([]graph.Relation, error) {
	var rels []graph.Relation
	err := eachLine(r, func(line []byte) error {
		var rel graph.Relation
		if err := json.Unmarshal(line, &rel); err != nil {
			return err
		}
		if rel.SourceNs == "" || rel.SourceID == "" || rel.TargetNs == "" || rel.TargetID == "" || rel.RelType == "" {
			return fmt.Errorf("relation is missing an endpoint or type")
		}
		rels = append(rels, graph.NewRelation(rel.SourceNs, rel.SourceID, rel.TargetNs, rel.TargetID, rel.RelType, rel.Data))
		return nil
	})
	return rels, err
}

// liveOpener connects to the services named by the environment.
type liveOpener struct {
	log     *zap.Logger
	cfg     *config.Config
	store   cache.Store
	repo    *graph.Repository
	closers []func()
}

func (o *liveOpener) config() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	o.cfg = cfg
	return cfg, nil
}

func (o *liveOpener) Store(ctx context.Context) (cache.Store, error) {
	if o.store != nil {
		return o.store, nil
	}
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	files, err := cache.NewFileStore(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	stores := []cache.Store{files}
	if cfg.RedisAddr != "" {
		shared, err := cache.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			o.log.Warn("Redis cache unavailable, using local files only", zap.Error(err))
		} else {
			stores = append(stores, shared)
			o.closers = append(o.closers, func() { _ = shared.Close() })
		}
	}
	o.store = cache.NewTiered(stores...)
	return o.store, nil
}

func (o *liveOpener) repository(ctx context.Context) (*graph.Repository, error) {
	if o.repo != nil {
		return o.repo, nil
	}
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	driver, err := graph.NewDriver(ctx, cfg)
	if err != nil {
		return nil, err
	}
	o.repo = graph.NewRepository(driver, cfg.Neo4jDatabase)
	o.closers = append(o.closers, func() { _ = o.repo.Close() })
	return o.repo, nil
}

func (o *liveOpener) Warmer(ctx context.Context) (warmer, error) {
	store, err := o.Store(ctx)
	if err != nil {
		return nil, err
	}
	repo, err := o.repository(ctx)
	if err != nil {
		return nil, err
	}
	return genesets.NewCollector(repo, store), nil
}

func (o *liveOpener) Graph(ctx context.Context) (graphWriter, error) {
	repo, err := o.repository(ctx)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func (o *liveOpener) Curations(ctx context.Context) (curation.Store, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	db, err := curation.OpenDB(cfg.CurationDSN)
	if err != nil {
		return nil, err
	}
	store := curation.NewGormStore(db)
	if err := store.AutoMigrate(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (o *liveOpener) Close() {
	for i := len(o.closers) - 1; i >= 0; i-- {
		o.closers[i]()
	}
	o.closers = nil
}
