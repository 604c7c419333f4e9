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
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"monofs/internal/server"
)

var nfsserverFlags struct {
	host     string
	port     int
	storeDir string
	fsDBPath string
}

var nfsserverCmd = &cobra.Command{
	Use:   "nfsserver",
	Short: "Serve the entity graph over NFS",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := server.OpenState(cmd.Context(), nfsserverFlags.storeDir, nfsserverFlags.fsDBPath)
		if err != nil {
			return err
		}
		defer state.Close()

		srv := server.NewNFSServer(state)

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
		go func() {
			sig := <-sigs
			log.WithField("signal", sig).Info("shutting down NFS server")
			srv.Shutdown()
		}()

		addr := fmt.Sprintf("%s:%d", nfsserverFlags.host, nfsserverFlags.port)
		log.WithField("addr", addr).Info("NFS server listening")
		if err := srv.Serve(addr); err != nil {
			// Listener close during shutdown surfaces as a serve error.
			log.WithError(err).Debug("serve loop ended")
		}
		return nil
	},
}

func init() {
	f := nfsserverCmd.Flags()
	f.StringVar(&nfsserverFlags.host, "host", "127.0.0.1", "bind host")
	f.IntVar(&nfsserverFlags.port, "port", 0, "bind port")
	f.StringVar(&nfsserverFlags.storeDir, "store-dir", "", "block store directory")
	f.StringVar(&nfsserverFlags.fsDBPath, "fs-db-path", "", "registry database path")
	for _, name := range []string{"port", "store-dir", "fs-db-path"} {
		_ = nfsserverCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(nfsserverCmd)
}
