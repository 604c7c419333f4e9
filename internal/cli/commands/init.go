// Copyright 2025 MonoFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"monofs/internal/mfs"
)

var initCmd = &cobra.Command{
	Use:   "init [mount-dir]",
	Short: "Initialize and mount a filesystem at a directory",
	Long:  `Creates the metadata directory next to the mount directory, starts the serving subprocess and mounts the filesystem over NFS. Defaults to the current directory.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mountDir := ""
		if len(args) == 1 {
			mountDir = args[0]
		}

		runnerExe, err := mfs.ResolveRunnerExe(settings)
		if err != nil {
			return err
		}

		port, err := mfs.Init(cmd.Context(), mountDir, mfs.InitConfig{
			Host:      settings.Host,
			StartPort: settings.StartPort,
			PortRange: settings.PortRange,
			RunnerExe: runnerExe,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Mounted on port %d\n", port)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
