/*
Package main is the findy-didcomm CLI. It runs the mailbox agency service and
the Aries agent to agent protocols of a wallet:

  - connections with connection and out-of-band invitations
  - basic messages, trust pings and feature discovery
  - issue credential
  - present proof

The protocols live in the protocol packages as state machines which other Go
programs can use without the CLI. The credential protocols need an Indy wallet
and a ledger pool, which are given with the indy flags.

# Starting the agency

	findy-didcomm agency start \
		--agency-url http://localhost:8080 \
		--agency-key 15308490f1e4026284594dd08d31291bc8ef2aeac730d0daf6ff87bb92d4336c

# Connecting

	findy-didcomm connection invitation --wallet alice --wallet-key $ALICE_KEY
	findy-didcomm connection accept --wallet bob --wallet-key $BOB_KEY '{"@type":...}'
	findy-didcomm connection update --wallet alice --wallet-key $ALICE_KEY

All the flags can be given in the environment with the FCLI_ prefix, for
example FCLI_WALLET_KEY, or in the config file of the --config flag.
*/
package main
