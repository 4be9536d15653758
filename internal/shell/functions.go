package shell

import (
	_ "embed"
	"fmt"
)

//go:embed scripts/ghpr.fish
var fishScript string

//go:embed scripts/ghpr.bash
var bashScript string

//go:embed scripts/ghpr.zsh
var zshScript string

// Shells lists the shells functions can be generated for.
var Shells = []string{"fish", "zsh", "bash"}

// FunctionGenerator generates the ghpr shell function, which pairs
// "ghui prs --fzf" with "ghui pr view --fzf" as the fzf preview.
type FunctionGenerator struct{}

// NewFunctionGenerator creates a new FunctionGenerator.
func NewFunctionGenerator() *FunctionGenerator {
	return &FunctionGenerator{}
}

// Generate returns the function for the named shell.
func (g *FunctionGenerator) Generate(shellName string) (string, error) {
	switch shellName {
	case "fish":
		return g.GenerateFish(), nil
	case "zsh":
		return g.GenerateZsh(), nil
	case "bash":
		return g.GenerateBash(), nil
	}
	return "", fmt.Errorf("unsupported shell: %s (supported: fish, zsh, bash)", shellName)
}

// GenerateFish returns the fish shell function.
func (g *FunctionGenerator) GenerateFish() string {
	return fishScript
}

// GenerateZsh returns the zsh shell function.
func (g *FunctionGenerator) GenerateZsh() string {
	return zshScript
}

// GenerateBash returns the bash shell function.
func (g *FunctionGenerator) GenerateBash() string {
	return bashScript
}
