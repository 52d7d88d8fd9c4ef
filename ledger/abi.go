// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ParseABI decodes the contract interface description. An empty string
// selects the built-in Voting ABI; otherwise encoded must be Base64 of the
// JSON ABI, and the methods the service calls must have the built-in
// argument and return types.
func ParseABI(encoded string) (abi.ABI, error) {
	raw := DefaultABI
	if encoded = strings.TrimSpace(encoded); encoded != "" {
		b, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return abi.ABI{}, fmt.Errorf("failed to decode contract ABI: %w", err)
		}
		raw = string(b)
	}

	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse contract ABI: %w", err)
	}

	for _, name := range requiredMethods {
		m, ok := parsed.Methods[name]
		if !ok {
			return abi.ABI{}, fmt.Errorf("contract ABI is missing method %q", name)
		}
		if err := sameSignature(m, builtinABI.Methods[name]); err != nil {
			return abi.ABI{}, err
		}
	}
	if m, ok := parsed.Methods[methodCreate]; ok {
		if err := sameSignature(m, builtinABI.Methods[methodCreate]); err != nil {
			return abi.ABI{}, err
		}
	}
	return parsed, nil
}

// sameSignature rejects a method whose argument or return types differ from
// the built-in ABI. Names may differ; types and order may not.
func sameSignature(got, want abi.Method) error {
	if in, wantIn := argTypes(got.Inputs), argTypes(want.Inputs); in != wantIn {
		return fmt.Errorf("contract ABI method %q takes %s, want %s", got.Name, in, wantIn)
	}
	if out, wantOut := argTypes(got.Outputs), argTypes(want.Outputs); out != wantOut {
		return fmt.Errorf("contract ABI method %q returns %s, want %s", got.Name, out, wantOut)
	}
	return nil
}

func argTypes(args abi.Arguments) string {
	types := make([]string, len(args))
	for i, a := range args {
		types[i] = a.Type.String()
	}
	return "(" + strings.Join(types, ",") + ")"
}

var requiredMethods = []string{methodCount, methodDetails, methodCandidates, methodRecordVote}

var builtinABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(DefaultABI))
	if err != nil {
		panic(err)
	}
	return parsed
}()

const (
	methodCount      = "getElectionCount"
	methodDetails    = "getElectionDetails"
	methodCandidates = "getElectionCandidates"
	methodRecordVote = "recordVote"
	methodCreate     = "createElection"
	eventCreated     = "ElectionCreated"
)

// DefaultABI is the interface of the deployed Voting contract. Eligible
// pairs are the zip of targetYears and targetSections.
const DefaultABI = `[
  {
    "inputs": [],
    "name": "getElectionCount",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "uint256", "name": "_electionId", "type": "uint256"}],
    "name": "getElectionDetails",
    "outputs": [
      {"internalType": "string", "name": "name", "type": "string"},
      {"internalType": "uint256", "name": "startTime", "type": "uint256"},
      {"internalType": "uint256", "name": "endTime", "type": "uint256"},
      {"internalType": "uint256[]", "name": "targetYears", "type": "uint256[]"},
      {"internalType": "string[]", "name": "targetSections", "type": "string[]"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "uint256", "name": "_electionId", "type": "uint256"}],
    "name": "getElectionCandidates",
    "outputs": [{
      "components": [
        {"internalType": "uint256", "name": "id", "type": "uint256"},
        {"internalType": "string", "name": "name", "type": "string"},
        {"internalType": "uint256", "name": "voteCount", "type": "uint256"}
      ],
      "internalType": "struct Voting.Candidate[]",
      "name": "",
      "type": "tuple[]"
    }],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "_electionId", "type": "uint256"},
      {"internalType": "uint256", "name": "_candidateId", "type": "uint256"}
    ],
    "name": "recordVote",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "string", "name": "_name", "type": "string"},
      {"internalType": "string[]", "name": "_candidateNames", "type": "string[]"},
      {"internalType": "uint256", "name": "_durationSeconds", "type": "uint256"},
      {"internalType": "uint256[]", "name": "_targetYears", "type": "uint256[]"},
      {"internalType": "string[]", "name": "_targetSections", "type": "string[]"}
    ],
    "name": "createElection",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "electionId", "type": "uint256"},
      {"indexed": false, "internalType": "string", "name": "name", "type": "string"}
    ],
    "name": "ElectionCreated",
    "type": "event"
  }
]`
