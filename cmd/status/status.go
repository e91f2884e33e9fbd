/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package status

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stratastor/ethman/config"
	"github.com/stratastor/ethman/internal/constants"
	"github.com/stratastor/ethman/pkg/errors"
	"github.com/stratastor/ethman/pkg/httpclient"
)

func NewStatusCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check Ethman server and interface status",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.GetConfig()

			client := httpclient.New(httpclient.DefaultConfig(
				fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)))

			var result map[string]any
			if err := client.Get(cmd.Context(), constants.APIStatus, &result); err != nil {
				if errors.CodeOf(err) != 0 {
					fmt.Fprintf(os.Stderr, "Ethman server returned an error: %v\n", err)
					os.Exit(1)
				}
				fmt.Println("Ethman server is not running")
				return
			}

			if jsonOut {
				out, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(1)
				}
				fmt.Println(string(out))
				return
			}

			fmt.Println("Ethman server is running")
			for _, key := range []string{"state", "connected", "link_up", "ip", "mac", "uptime", "last_error"} {
				if val, ok := result[key]; ok {
					fmt.Printf("  %-12s %v\n", key+":", val)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the raw status result as JSON")
	return cmd
}
