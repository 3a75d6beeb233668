package attestation

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
)

type argument struct {
	name       string
	typ        string
	components []abi.ArgumentMarshaling
}

// mustArguments builds a fixed schema; the inputs are constants.
func mustArguments(args ...argument) abi.Arguments {
	out := make(abi.Arguments, len(args))
	for i, a := range args {
		t, err := abi.NewType(a.typ, "", a.components)
		if err != nil {
			panic(err)
		}
		out[i] = abi.Argument{Name: a.name, Type: t}
	}
	return out
}
