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

package runner

import (
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"monofs/internal/supervisor"
)

var supervisorCfg supervisor.Config

var supervisorCmd = &cobra.Command{
	Use:   "supervisor",
	Short: "Run the supervisor for a mounted filesystem",
	RunE: func(cmd *cobra.Command, args []string) error {
		// The supervisor is detached from any terminal; log to a file in
		// the instance log dir.
		logFile, err := os.OpenFile(
			filepath.Join(supervisorCfg.LogDir, "supervisor.log"),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			log.SetOutput(logFile)
			defer logFile.Close()
		}
		return supervisor.Run(cmd.Context(), supervisorCfg)
	},
}

func init() {
	f := supervisorCmd.Flags()
	f.StringVar(&supervisorCfg.LogDir, "log-dir", "", "log directory")
	f.StringVar(&supervisorCfg.ChildName, "child-name", "", "name for the nfsserver child")
	f.StringVar(&supervisorCfg.Host, "host", "127.0.0.1", "NFS bind host")
	f.IntVar(&supervisorCfg.Port, "port", 0, "NFS port")
	f.StringVar(&supervisorCfg.StoreDir, "store-dir", "", "block store directory")
	f.StringVar(&supervisorCfg.FsDBPath, "fs-db-path", "", "registry database path")
	f.StringVar(&supervisorCfg.MountDir, "mount-dir", "", "mount directory")
	for _, name := range []string{"log-dir", "child-name", "port", "store-dir", "fs-db-path", "mount-dir"} {
		_ = supervisorCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(supervisorCmd)
}
