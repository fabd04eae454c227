// Command schemactl builds, validates, and registers array schemas
// against a local or S3-backed registry.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/tilegrid/arrayschema/internal/config"
	"github.com/tilegrid/arrayschema/internal/registry"
	"github.com/tilegrid/arrayschema/pkg/arrayschema"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "register":
		runRegister(os.Args[2:])
	case "get":
		runGet(os.Args[2:])
	case "list":
		runList(os.Args[2:])
	case "delete":
		runDelete(os.Args[2:])
	case "version":
		fmt.Printf("schemactl version %s (commit: %s)\n", version, commit)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "schemactl: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "schemactl - build, validate, and register array schemas\n\n")
	fmt.Fprintf(os.Stderr, "Usage: schemactl <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  register  Build a schema from flags and register it\n")
	fmt.Fprintf(os.Stderr, "  get       Print a registered schema by name\n")
	fmt.Fprintf(os.Stderr, "  list      List registered array names\n")
	fmt.Fprintf(os.Stderr, "  delete    Remove a registered schema\n")
	fmt.Fprintf(os.Stderr, "  version   Show version information\n")
	fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
	fmt.Fprintf(os.Stderr, "  ARRAYSCHEMA_DATA_DIR     Base directory for the local index and blobs\n")
	fmt.Fprintf(os.Stderr, "  ARRAYSCHEMA_STORAGE_TYPE Storage type (local, s3)\n")
}

// repeatedFlag collects a flag passed more than once, e.g.
// -attr x=int32 -attr y=float64:var.
type repeatedFlag []string

func (r *repeatedFlag) String() string     { return strings.Join(*r, ",") }
func (r *repeatedFlag) Set(v string) error { *r = append(*r, v); return nil }

func loadConfig(configFile, dataDir, storageType string) (*config.Config, error) {
	config.LoadDotenv(".env")

	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if storageType != "" {
		cfg.Storage.Type = config.StorageType(storageType)
	}
	cfg.Resolve()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openRegistry(ctx context.Context, cfg *config.Config) (*registry.Registry, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	var store registry.BlobStore
	var err error
	switch cfg.Storage.Type {
	case config.StorageS3:
		store, err = registry.NewS3BlobStore(ctx, cfg.Storage.S3.Bucket, registry.S3Config{
			Region:   cfg.Storage.S3.Region,
			Endpoint: cfg.Storage.S3.Endpoint,
		})
	default:
		store, err = registry.NewLocalBlobStore(cfg.Storage.Path)
	}
	if err != nil {
		return nil, err
	}

	index, err := registry.NewSQLiteSchemaIndex(cfg.IndexPath())
	if err != nil {
		return nil, err
	}
	return registry.New(store, index), nil
}

func runRegister(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to configuration file (YAML or JSON)")
	dataDir := fs.String("data-dir", "", "Base directory for the local index and blobs")
	storageType := fs.String("storage-type", "", "Storage type: local, s3")

	name := fs.String("name", "", "Array name (required)")
	var attrs, dims, compress repeatedFlag
	fs.Var(&attrs, "attr", `Attribute as "name=spec", spec like "float64" or "char:var"`)
	fs.Var(&dims, "dim", "Dimension name, repeatable")
	fs.Var(&compress, "compression", `Compression as "name=MODE" (MODE: NONE, GZIP)`)
	coordsTypeSpec := fs.String("coords-type", "int64", `Coordinate type: "int64", or "char:var" for key-value (-domain and -tile-extents are parsed as int64, so other types fail)`)
	dense := fs.Bool("dense", false, "Build a dense array")
	capacity := fs.Int64("capacity", 0, "Cells per tile for sparse, irregularly tiled arrays")
	consolidationStep := fs.Int("consolidation-step", 0, "Opaque consolidation step")
	cellOrder := fs.String("cell-order", "row-major", "Cell order: row-major, column-major, hilbert")
	tileOrder := fs.String("tile-order", "row-major", "Tile order: row-major, column-major, hilbert")
	var domainFlag, extentsFlag string
	fs.StringVar(&domainFlag, "domain", "", "Comma-separated lo,hi pairs, one pair per dimension")
	fs.StringVar(&extentsFlag, "tile-extents", "", "Comma-separated tile extents, one per dimension")
	fs.Parse(args)

	if *name == "" {
		log.Fatal("register: -name is required")
	}

	cfg, err := loadConfig(*configFile, *dataDir, *storageType)
	if err != nil {
		log.Fatalf("register: %v", err)
	}

	b := arrayschema.NewBuilder().SetName(*name)
	for _, a := range attrs {
		parts := strings.SplitN(a, "=", 2)
		if len(parts) != 2 {
			log.Fatalf("register: malformed -attr %q, want name=spec", a)
		}
		b = b.AddAttribute(parts[0], parts[1])
	}
	for _, d := range dims {
		b = b.AddDimension(d)
	}
	for _, c := range compress {
		parts := strings.SplitN(c, "=", 2)
		if len(parts) != 2 {
			log.Fatalf("register: malformed -compression %q, want name=MODE", c)
		}
		b = b.SetCompression(parts[0], parts[1])
	}
	b = b.SetCoordsTypeSpec(*coordsTypeSpec).SetDense(*dense)
	if *capacity > 0 {
		b = b.SetCapacity(*capacity)
	}
	if *consolidationStep > 0 {
		b = b.SetConsolidationStep(int32(*consolidationStep))
	}
	b = b.SetCellOrder(*cellOrder).SetTileOrder(*tileOrder)

	if domainFlag != "" {
		b = arrayschema.SetDomain(b, parseInt64s(domainFlag))
	}
	if extentsFlag != "" {
		b = arrayschema.SetTileExtents(b, parseInt64s(extentsFlag))
	}

	s, err := b.Finalize()
	if err != nil {
		log.Fatalf("register: %v", err)
	}

	ctx := context.Background()
	reg, err := openRegistry(ctx, cfg)
	if err != nil {
		log.Fatalf("register: %v", err)
	}
	if err := reg.Put(ctx, s); err != nil {
		log.Fatalf("register: %v", err)
	}
	fmt.Print(s.String())
}

func runGet(args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to configuration file (YAML or JSON)")
	dataDir := fs.String("data-dir", "", "Base directory for the local index and blobs")
	storageType := fs.String("storage-type", "", "Storage type: local, s3")
	name := fs.String("name", "", "Array name (required)")
	fs.Parse(args)

	if *name == "" {
		log.Fatal("get: -name is required")
	}
	cfg, err := loadConfig(*configFile, *dataDir, *storageType)
	if err != nil {
		log.Fatalf("get: %v", err)
	}
	ctx := context.Background()
	reg, err := openRegistry(ctx, cfg)
	if err != nil {
		log.Fatalf("get: %v", err)
	}
	s, err := reg.Get(ctx, *name)
	if err != nil {
		log.Fatalf("get: %v", err)
	}
	fmt.Print(s.String())
}

func runList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to configuration file (YAML or JSON)")
	dataDir := fs.String("data-dir", "", "Base directory for the local index and blobs")
	storageType := fs.String("storage-type", "", "Storage type: local, s3")
	fs.Parse(args)

	cfg, err := loadConfig(*configFile, *dataDir, *storageType)
	if err != nil {
		log.Fatalf("list: %v", err)
	}
	ctx := context.Background()
	reg, err := openRegistry(ctx, cfg)
	if err != nil {
		log.Fatalf("list: %v", err)
	}
	names, err := reg.List(ctx)
	if err != nil {
		log.Fatalf("list: %v", err)
	}
	for _, n := range names {
		fmt.Println(n)
	}
}

func runDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to configuration file (YAML or JSON)")
	dataDir := fs.String("data-dir", "", "Base directory for the local index and blobs")
	storageType := fs.String("storage-type", "", "Storage type: local, s3")
	name := fs.String("name", "", "Array name (required)")
	fs.Parse(args)

	if *name == "" {
		log.Fatal("delete: -name is required")
	}
	cfg, err := loadConfig(*configFile, *dataDir, *storageType)
	if err != nil {
		log.Fatalf("delete: %v", err)
	}
	ctx := context.Background()
	reg, err := openRegistry(ctx, cfg)
	if err != nil {
		log.Fatalf("delete: %v", err)
	}
	if err := reg.Delete(ctx, *name); err != nil {
		log.Fatalf("delete: %v", err)
	}
}

func parseInt64s(s string) []int64 {
	parts := strings.Split(s, ",")
	out := make([]int64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			log.Fatalf("invalid integer %q: %v", p, err)
		}
		out[i] = v
	}
	return out
}
