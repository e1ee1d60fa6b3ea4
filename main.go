package main

import "github.com/dammyboss/postgresql-failover-connection-pool/cmd"

func main() {
	cmd.Execute()
}
