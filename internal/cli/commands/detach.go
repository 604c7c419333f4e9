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

var detachForce bool

var detachCmd = &cobra.Command{
	Use:   "detach [dir]",
	Short: "Unmount a filesystem and stop its server",
	Long:  `Locates the mount root at or above the given directory (default: current directory), unmounts it and terminates the serving subprocess. Server termination is best-effort; unmounting is not.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		startDir := ""
		if len(args) == 1 {
			startDir = args[0]
		}
		if err := mfs.Detach(cmd.Context(), startDir, detachForce); err != nil {
			return err
		}
		fmt.Println("Detached")
		return nil
	},
}

func init() {
	detachCmd.Flags().BoolVarP(&detachForce, "force", "f", false, "force the unmount")
	rootCmd.AddCommand(detachCmd)
}
