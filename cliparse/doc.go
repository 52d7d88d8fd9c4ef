// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

CLI flags take precedence over environment variables, which main may load
from a .env file first.

# Settings

	-p                 PORT                      Server port (default 3318)
	-d                 DATABASE_URL              Voter store DSN (required)
	-t                 DATABASE_TYPE             sqlite (default) or postgres
	-supabase-url      SUPABASE_URL              Identity provider (required)
	-supabase-key      SUPABASE_SERVICE_ROLE_KEY Service role key (required)
	-rpc               RPC_URL                   Ledger JSON-RPC endpoint
	-contract          CONTRACT_ADDRESS          Voting contract address
	                   CONTRACT_ABI              Base64 JSON ABI override
	-ledger-key        ADMIN_PRIVATE_KEY         Transaction signing key
	-gas-tip           GAS_TIP_GWEI              Max priority fee (default 30)
	-gas-cap           GAS_FEE_CAP_GWEI          Max fee (default 100)
	-admins            ADMIN_USER_IDS            Comma separated admin user ids
	-list-concurrency  LIST_CONCURRENCY          Parallel election reads (default 8)

When RPC_URL is empty the service runs against an in-memory ledger and
CONTRACT_ADDRESS and ADMIN_PRIVATE_KEY are not required.

Config.DebugString renders the configuration for logs with passwords and
keys left out.
*/
package cliparse
