// Command jgvm runs a single class file's main method on a
// from-scratch JVM-bytecode interpreter.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jgvm/internal/natives"
	"jgvm/internal/object"
	"jgvm/internal/trace"
	"jgvm/internal/vm"
)

var debugLevel int

func run(cmd *cobra.Command, args []string) error {
	className := args[0]
	programArgs := args[1:]

	log := trace.New(debugLevel)
	defer log.Sync()

	reg := vm.NewRegistry(log)
	natives.Register(reg)

	class, err := reg.Get(className)
	if err != nil {
		return fmt.Errorf("loading %s: %w", className, err)
	}

	argv := object.NewArray(natives.ObjectDesc(natives.StringClass), len(programArgs), object.Null{})
	for i, a := range programArgs {
		argv.Elements[i] = object.Str(a)
	}

	result, err := vm.RunStatic(reg, class, "main", []object.Value{argv})
	if err != nil {
		if excVal, ok := vm.UncaughtValue(err); ok {
			return fmt.Errorf("uncaught %s: %s", excVal.ClassName(), excMessage(excVal))
		}
		return err
	}
	if result != nil && !result.IsNull() {
		log.Debugf("main returned %s", result.Display())
	}
	return nil
}

// fielded is satisfied by object.Object and any native instance type
// that embeds it, letting excMessage reach a "message" field without
// depending on concrete natives types from the cmd package.
type fielded interface {
	Field(name string) (object.Value, bool)
}

func excMessage(v object.Value) string {
	f, ok := v.(fielded)
	if !ok {
		return v.Display()
	}
	msg, ok := f.Field("message")
	if !ok || msg == nil || msg.IsNull() {
		return v.Display()
	}
	return msg.Display()
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "jgvm <class> [args...]",
		Short: "A from-scratch JVM bytecode interpreter",
		Long:  "jgvm loads a single compiled Java class file and runs its main method.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  run,
	}
	rootCmd.Flags().IntVar(&debugLevel, "debug", trace.LevelSilent, "diagnostic verbosity: 0 silent, 1 load, 2 exceptions, 3 instructions")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
