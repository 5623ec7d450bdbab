package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"gosigo/internal/domain"
	apperror "gosigo/internal/errors"
	"gosigo/internal/pkg/aggregate"
	"gosigo/internal/pkg/logger"
	"gosigo/internal/pkg/password"
	"gosigo/internal/pkg/query"
	"gosigo/internal/repository/recordrepo"
	"gosigo/internal/seed"
)

const defaultFile = "data/sigo.json"

type listFlags struct {
	file     string
	search   string
	from     string
	to       string
	sort     string
	desc     bool
	page     int
	pageSize int
	timezone string
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		// cobra já imprimiu o erro
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "sigoctl",
		Short:        "Ferramentas de administração do GoSIGO",
		SilenceUsage: true,
	}
	root.SetOut(out)

	root.AddCommand(newHashPasswordCmd(), newSeedCmd(), newRecordsCmd())
	return root
}

func newHashPasswordCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password <senha>",
		Short: "Imprime o hash bcrypt da senha",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := password.NewHasher(cost).Hash(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", 10, "custo do bcrypt")
	return cmd
}

func newSeedCmd() *cobra.Command {
	var file string
	var force bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Grava o conjunto de demonstração num ficheiro de dados",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				if _, err := os.Stat(file); err == nil {
					return fmt.Errorf("%s já existe (use --force para substituir)", file)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}
			seeder := seed.NewSeeder(password.NewHasher(10), logger.NewNop())
			if err := recordrepo.WriteSnapshotFile(file, seeder.Snapshot()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "conjunto de demonstração gravado em %s\n", file)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", defaultFile, "ficheiro de dados")
	cmd.Flags().BoolVar(&force, "force", false, "substitui um ficheiro existente")
	return cmd
}

func newRecordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Consulta os registos de um ficheiro de dados",
	}

	var lf listFlags
	list := &cobra.Command{
		Use:   "list <categoria>",
		Short: "Lista registos filtrados, ordenados e paginados",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.OutOrStdout(), args[0], lf)
		},
	}
	f := list.Flags()
	f.StringVar(&lf.file, "file", defaultFile, "ficheiro de dados")
	f.StringVar(&lf.search, "q", "", "pesquisa livre")
	f.StringVar(&lf.from, "from", "", "data inicial (inclusiva)")
	f.StringVar(&lf.to, "to", "", "data final (inclusiva)")
	f.StringVar(&lf.sort, "sort", "", "coluna de ordenação")
	f.BoolVar(&lf.desc, "desc", false, "ordem descendente")
	f.IntVar(&lf.page, "page", 1, "página (1-indexada)")
	f.IntVar(&lf.pageSize, "page-size", query.AllRecords, "tamanho da página (-1: todos)")
	f.StringVar(&lf.timezone, "tz", "Local", "fuso horário dos filtros de datas")

	var file, field string
	stats := &cobra.Command{
		Use:   "stats <categoria>",
		Short: "Conta os registos pelo valor de um campo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.OutOrStdout(), file, args[0], field)
		},
	}
	stats.Flags().StringVar(&file, "file", defaultFile, "ficheiro de dados")
	stats.Flags().StringVar(&field, "field", "municipio", "campo a agrupar")

	cmd.AddCommand(list, stats)
	return cmd
}

func loadCategory(file, key string) (domain.Category, []domain.Record, error) {
	c, ok := domain.ParseCategory(key)
	if !ok {
		return "", nil, apperror.NewUnknownCategoryError(key)
	}
	snap, err := recordrepo.ReadSnapshotFile(file)
	if err != nil {
		return "", nil, err
	}
	return c, snap[c], nil
}

func runList(out io.Writer, key string, lf listFlags) error {
	c, records, err := loadCategory(lf.file, key)
	if err != nil {
		return err
	}
	loc := time.Local
	if lf.timezone != "" && lf.timezone != "Local" {
		if loc, err = time.LoadLocation(lf.timezone); err != nil {
			return err
		}
	}

	page, err := query.Apply(c, records, query.Params{
		Search:   lf.search,
		DateFrom: lf.from,
		DateTo:   lf.to,
		Sort:     query.SortState{Column: lf.sort, Descending: lf.desc},
		Page:     lf.page,
		PageSize: lf.pageSize,
	}, loc)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(page.Items); err != nil {
		return err
	}
	fmt.Fprintf(out, "# %d registo(s), página %d de %d\n", page.Total, page.Page, page.TotalPages)
	return nil
}

func runStats(out io.Writer, file, key, field string) error {
	_, records, err := loadCategory(file, key)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tTOTAL\n", field)
	for _, b := range aggregate.CountBy(records, field) {
		fmt.Fprintf(tw, "%s\t%d\n", b.Name, b.Count)
	}
	return tw.Flush()
}
