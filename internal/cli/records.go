package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/gridstore/internal/model"
)

// HeaderResult is the payload of the header command.
type HeaderResult struct {
	Header model.Header `json:"header"`
	Schema model.Schema `json:"schema"`
}

// FindOneResult is the payload of the find-one command.
type FindOneResult struct {
	Found  bool         `json:"found"`
	Record model.Record `json:"record,omitempty"`
}

// NewHeaderCommand creates the header command.
func NewHeaderCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "header",
		Short: "Bind the schema and print the merged header",
		Long: `Reconcile the configured schema with the tab's header row, persist the
merged header and print it. Missing columns are appended; existing columns
keep their positions.

Example:
  gridstore header --config ./gridstore.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openStore(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.close()

			b, err := sess.store.Binding(cmd.Context())
			if err != nil {
				return rootOpts.formatter(cmd).StoreError("header", err)
			}
			res := HeaderResult{Header: b.Header(), Schema: b.Schema()}
			if rootOpts.Format == "json" {
				return rootOpts.formatter(cmd).Success(res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(res.Header, "\t"))
			return nil
		},
	}
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <record-json|->",
		Short: "Append a new record",
		Long: `Validate a record against the schema, assign it a fresh identity and
append it as a new row. Pass - to read the record from stdin.

Example:
  gridstore create '{"name":"Ann","age":30}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := parseRecord(cmd.InOrStdin(), args[0], "record")
			if err != nil {
				return err
			}
			sess, err := openStore(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.close()

			out := rootOpts.formatter(cmd)
			created, err := sess.store.Create(cmd.Context(), rec)
			if err != nil {
				return out.StoreError("create", err)
			}
			return out.Records([]model.Record{created})
		},
	}
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "find [query-json]",
		Short: "List live records matching a query",
		Long: `Print every live record whose fields equal all the query's values, in
row order. With no query every live record is printed.

Examples:
  gridstore find
  gridstore find '{"age":30}'
  gridstore find '{"__ID":"0b5c..."}' --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQueryArg(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			sess, err := openStore(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.close()

			out := rootOpts.formatter(cmd)
			records, err := sess.store.Find(cmd.Context(), q)
			if err != nil {
				return out.StoreError("find", err)
			}
			out.VerboseLog("%d record(s) matched", len(records))
			return out.Records(records)
		},
	}
}

// NewFindOneCommand creates the find-one command.
func NewFindOneCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "find-one [query-json]",
		Short: "Print the first live record matching a query",
		Long: `Print the live record with the lowest row number whose fields equal all
the query's values. No match is not an error.

Example:
  gridstore find-one '{"name":"Ann"}'`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQueryArg(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			sess, err := openStore(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.close()

			out := rootOpts.formatter(cmd)
			rec, found, err := sess.store.FindOne(cmd.Context(), q)
			if err != nil {
				return out.StoreError("find-one", err)
			}
			if rootOpts.Format == "json" {
				return out.Success(FindOneResult{Found: found, Record: rec})
			}
			if !found {
				fmt.Fprintln(cmd.OutOrStdout(), "no matching record")
				return nil
			}
			return out.Records([]model.Record{rec})
		},
	}
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <query-json> <patch-json>",
		Short: "Patch the first live record matching a query",
		Long: `Overwrite the patched fields of the first live record matching the query
and print the record as stored. The identity never changes.

Example:
  gridstore update '{"name":"Ann"}' '{"age":31}'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQueryArg(cmd.InOrStdin(), args[:1])
			if err != nil {
				return err
			}
			patch, err := parseRecord(cmd.InOrStdin(), args[1], "patch")
			if err != nil {
				return err
			}
			sess, err := openStore(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.close()

			out := rootOpts.formatter(cmd)
			updated, err := sess.store.Update(cmd.Context(), q, patch)
			if err != nil {
				return out.StoreError("update", err)
			}
			return out.Records([]model.Record{updated})
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <query-json>",
		Short: "Tombstone the first live record matching a query",
		Long: `Blank every cell of the first live record matching the query. The row
stays in place so later row numbers do not shift. This cannot be undone.

Example:
  gridstore delete '{"__ID":"0b5c..."}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQueryArg(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			sess, err := openStore(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.close()

			out := rootOpts.formatter(cmd)
			if err := sess.store.Delete(cmd.Context(), q); err != nil {
				return out.StoreError("delete", err)
			}
			if rootOpts.Format == "json" {
				return out.Success(map[string]bool{"deleted": true})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}
}

// parseRecord decodes a flat JSON object. "-" reads it from stdin.
func parseRecord(stdin io.Reader, arg, what string) (model.Record, error) {
	data := []byte(arg)
	if arg == "-" {
		var err error
		data, err = io.ReadAll(stdin)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read "+what+" from stdin", err)
		}
	}
	var rec model.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid "+what+" JSON", err)
	}
	if rec == nil {
		return nil, NewExitError(ExitCommandError, what+" must be a JSON object")
	}
	return rec, nil
}

// parseQueryArg decodes an optional query argument. No argument matches
// every live record.
func parseQueryArg(stdin io.Reader, args []string) (model.Query, error) {
	if len(args) == 0 {
		return model.Query{}, nil
	}
	rec, err := parseRecord(stdin, args[0], "query")
	if err != nil {
		return nil, err
	}
	return model.Query(rec), nil
}
