// Command ingest registers tilesets in the SQLite catalog read by the server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/genotiles/server/internal/config"
	"github.com/genotiles/server/internal/seed"
	"github.com/genotiles/server/internal/store/sqlite"
)

func main() {
	godotenv.Load()

	if err := run(context.Background(), os.Args[1:], os.Getenv, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "ingest:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, getenv func(string) string, stdout io.Writer) error {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		catalogPath = fs.String("catalog", getenv(config.EnvCatalogPath), "Path to the SQLite catalog")
		list        = fs.Bool("list", false, "List registered tilesets and exit")
		remove      = fs.String("remove", "", "Remove the tileset with this uuid and exit")
		infoPath    = fs.String("info", "", "YAML file with tileset info (min_pos, max_pos, max_zoom, ...)")
		entry       seed.Entry
	)
	fs.StringVar(&entry.UUID, "uuid", "", "Tileset uuid (generated when empty)")
	fs.StringVar(&entry.Filetype, "filetype", "", "Filetype, e.g. cooler or chromsizes-tsv")
	fs.StringVar(&entry.Datatype, "datatype", "", "Datatype, e.g. matrix or chromsizes")
	fs.StringVar(&entry.Name, "name", "", "Display name")
	fs.StringVar(&entry.CoordSystem, "coord-system", "", "Assembly, e.g. hg19")
	fs.StringVar(&entry.CoordSystem2, "coord-system2", "", "Second-axis assembly")
	fs.StringVar(&entry.Datafile, "datafile", "", "Backing data file")
	fs.StringVar(&entry.Owner, "owner", "", "Owner")
	fs.StringVar(&entry.ProjectName, "project-name", "", "Project name")
	fs.StringVar(&entry.ProjectOwner, "project-owner", "", "Project owner")
	fs.StringVar(&entry.Description, "description", "", "Description")
	fs.BoolVar(&entry.Private, "private", false, "Mark as private")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *catalogPath == "" {
		return errors.New("no catalog: pass -catalog or set " + config.EnvCatalogPath)
	}

	catalog, err := sqlite.NewCatalog(*catalogPath)
	if err != nil {
		return err
	}
	defer catalog.Close()

	switch {
	case *list:
		return listTilesets(ctx, catalog, stdout)
	case *remove != "":
		removed, err := catalog.Delete(ctx, *remove)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("tileset %s not registered", *remove)
		}
		fmt.Fprintf(stdout, "removed %s\n", *remove)
		return nil
	}

	if *infoPath != "" {
		data, err := os.ReadFile(*infoPath)
		if err != nil {
			return fmt.Errorf("reading info: %w", err)
		}
		var info seed.InfoEntry
		if err := yaml.Unmarshal(data, &info); err != nil {
			return fmt.Errorf("parsing info %s: %w", *infoPath, err)
		}
		entry.Info = &info
	}
	if entry.Datafile != "" {
		abs, err := filepath.Abs(entry.Datafile)
		if err != nil {
			return err
		}
		entry.Datafile = abs
	}
	now := time.Now().UTC()
	entry.Created = &now

	rec, err := entry.Record()
	if err != nil {
		return err
	}
	if err := seed.Complete(&rec, ""); err != nil {
		return err
	}
	if err := catalog.Put(ctx, rec); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "registered %s\n", rec.Tileset.UUID)
	return nil
}

func listTilesets(ctx context.Context, catalog *sqlite.Catalog, stdout io.Writer) error {
	records, err := catalog.Load(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UUID\tFILETYPE\tDATATYPE\tCOORD\tNAME")
	for _, r := range records {
		ts := r.Tileset
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", ts.UUID, ts.Filetype, ts.Datatype, ts.CoordSystem, ts.Name)
	}
	return tw.Flush()
}
