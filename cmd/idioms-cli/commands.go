package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

func newCreateCmd() *cobra.Command {
	var key, value string
	var objectID int64
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create one metadata index entry (key=value for an object)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doIndex(http.MethodPost, key, value, objectID)
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "metadata key")
	cmd.Flags().StringVar(&value, "value", "", "metadata value")
	cmd.Flags().Int64Var(&objectID, "object-id", 0, "object id")
	cmd.MarkFlagRequired("key")
	cmd.MarkFlagRequired("value")
	cmd.MarkFlagRequired("object-id")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var key, value string
	var objectID int64
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete one metadata index entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doIndex(http.MethodDelete, key, value, objectID)
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "metadata key")
	cmd.Flags().StringVar(&value, "value", "", "metadata value")
	cmd.Flags().Int64Var(&objectID, "object-id", 0, "object id")
	cmd.MarkFlagRequired("key")
	cmd.MarkFlagRequired("value")
	cmd.MarkFlagRequired("object-id")
	return cmd
}

func doIndex(method, key, value string, objectID int64) error {
	body, err := json.Marshal(map[string]interface{}{"key": key, "value": value, "object_id": objectID})
	if err != nil {
		return err
	}
	req, err := http.NewRequest(method, baseURL+"/v1/index", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errorFromResponse(resp)
	}
	fmt.Println("ok")
	return nil
}

func newSearchCmd() *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run an md_search query of the form K=V, e.g. '*size*=large'",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := httpClient.Get(baseURL + "/v1/search?q=" + url.QueryEscape(query))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 300 {
				return errorFromResponse(resp)
			}
			return printJSON(resp.Body)
		},
	}
	cmd.Flags().StringVar(&query, "query", "", "query string, e.g. 'name=*.jpg'")
	cmd.MarkFlagRequired("query")
	return cmd
}

func newCheckpointCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkpoint",
		Short: "Checkpoint every partition to its default on-disk path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postAdmin("/v1/admin/checkpoint", nil)
		},
	}
}

func newRecoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "Recover every partition from its default on-disk checkpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postAdmin("/v1/admin/recover", nil)
		},
	}
}

func newRemapCmd() *cobra.Command {
	var numPartitions int
	cmd := &cobra.Command{
		Use:   "remap",
		Short: "Rebuild the router's virtual-node directory for a new partition count",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := json.Marshal(map[string]int{"num_partitions": numPartitions})
			if err != nil {
				return err
			}
			return postAdmin("/v1/admin/remap", body)
		},
	}
	cmd.Flags().IntVar(&numPartitions, "num-partitions", 0, "new partition count")
	cmd.MarkFlagRequired("num-partitions")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per-partition triple/object/query counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := httpClient.Get(baseURL + "/v1/stats")
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 300 {
				return errorFromResponse(resp)
			}
			return printJSON(resp.Body)
		},
	}
}

func postAdmin(path string, body []byte) error {
	resp, err := httpClient.Post(baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errorFromResponse(resp)
	}
	return printJSON(resp.Body)
}

func errorFromResponse(resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("idiomsd responded %s: %s", strconv.Itoa(resp.StatusCode), string(b))
}

func printJSON(r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		fmt.Println(string(b))
		return nil
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(pretty))
	return nil
}
