package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/talenthub-app/hubtalk/internal/app"
	"github.com/talenthub-app/hubtalk/internal/profile"
	"go.uber.org/fx"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fxApp := fx.New(
		app.Module(app.Params{ProfileName: profileName}),
		fx.NopLogger,
	)

	fxApp.Run()
}
