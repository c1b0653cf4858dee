package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recent expertise records",
		Run:   runRecent,
	}
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of records")
	RootCmd.AddCommand(cmd)
}

func runRecent(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg, log, err := loadConfig()
	if err != nil {
		exitErr("recent", err)
	}
	defer log.Sync()

	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	records, err := s.Recent(cmd.Context(), limit)
	if err != nil {
		exitErr("recent", err)
	}

	for _, rec := range records {
		b, _ := json.Marshal(rec)
		fmt.Println(string(b))
	}
}
