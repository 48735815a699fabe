package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage connection profiles",
	Long: `Profiles hold the host and credentials of a service instance.
Select one for an upload with --instance; without it the default profile is used.

The DSBULK_HOST, DSBULK_USERNAME, DSBULK_API_KEY and DSBULK_VERIFY_SSL
environment variables override the selected profile.`,
}

var profileAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add or update a profile",
	Long: `Stores a connection profile. The API key is prompted for when
--api-key is not given, without echo if stdin is a terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileAdd,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	RunE:  runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a profile",
	Long:  `Shows a profile with its API key masked. Without a name the default profile is shown.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfileShow,
}

var profileRemoveCmd = &cobra.Command{
	Use:   "remove [name]",
	Short: "Remove a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileRemove,
}

var profileUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileUse,
}

// promptInput is where interactive answers are read from; replaced in tests.
var promptInput io.Reader = os.Stdin

func init() {
	profileAddCmd.Flags().String("host", "", "service base URL, e.g. https://ds.example.com")
	profileAddCmd.Flags().String("username", "", "account user name")
	profileAddCmd.Flags().String("api-key", "", "API key (prompted for if omitted)")
	profileAddCmd.Flags().Bool("insecure", false, "skip TLS certificate verification")
	profileAddCmd.Flags().Bool("default", false, "make this the default profile")
	_ = profileAddCmd.MarkFlagRequired("host")
	_ = profileAddCmd.MarkFlagRequired("username")

	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileRemoveCmd)
	profileCmd.AddCommand(profileUseCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileAdd(cmd *cobra.Command, args []string) error {
	if profileService == nil {
		return errors.New("profile service not configured")
	}

	host, _ := cmd.Flags().GetString("host")
	username, _ := cmd.Flags().GetString("username")
	apiKey, _ := cmd.Flags().GetString("api-key")
	insecure, _ := cmd.Flags().GetBool("insecure")
	makeDefault, _ := cmd.Flags().GetBool("default")

	if apiKey == "" {
		cmd.Print("API key: ")
		apiKey = readPassword()
		cmd.Println()
	}

	profile := domain.Profile{
		Name:      args[0],
		Host:      host,
		Username:  username,
		APIKey:    apiKey,
		VerifySSL: !insecure,
	}
	if err := profileService.Save(profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	if makeDefault {
		if err := profileService.SetDefault(profile.Name); err != nil {
			return fmt.Errorf("failed to set default profile: %w", err)
		}
	}

	cmd.Printf("Profile %s saved.\n", profile.Name)
	if profileService.Default() == profile.Name {
		cmd.Printf("Profile %s is the default.\n", profile.Name)
	}
	return nil
}

func runProfileList(cmd *cobra.Command, _ []string) error {
	if profileService == nil {
		return errors.New("profile service not configured")
	}

	profiles, err := profileService.List()
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}

	if len(profiles) == 0 {
		cmd.Println("No profiles configured. Add one with 'dsbulk profile add'.")
		return nil
	}

	defaultName := profileService.Default()
	cmd.Println("Configured profiles:")
	for _, p := range profiles {
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}
		cmd.Printf("%s %-16s %s (%s)\n", marker, p.Name, p.Host, p.Username)
	}
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	if profileService == nil {
		return errors.New("profile service not configured")
	}

	name := profileService.Default()
	if len(args) > 0 {
		name = args[0]
	}
	if name == "" {
		return errors.New("no default profile set; pass a profile name")
	}

	p, err := profileService.Get(name)
	if err != nil {
		return fmt.Errorf("failed to get profile: %w", err)
	}

	cmd.Printf("Name:       %s\n", p.Name)
	cmd.Printf("Host:       %s\n", p.Host)
	cmd.Printf("Username:   %s\n", p.Username)
	cmd.Printf("API Key:    %s\n", p.MaskedAPIKey())
	cmd.Printf("Verify SSL: %t\n", p.VerifySSL)
	cmd.Printf("Default:    %t\n", p.Name == profileService.Default())
	return nil
}

func runProfileRemove(cmd *cobra.Command, args []string) error {
	if profileService == nil {
		return errors.New("profile service not configured")
	}

	if err := profileService.Delete(args[0]); err != nil {
		return fmt.Errorf("failed to remove profile: %w", err)
	}

	cmd.Printf("Profile %s removed.\n", args[0])
	return nil
}

func runProfileUse(cmd *cobra.Command, args []string) error {
	if profileService == nil {
		return errors.New("profile service not configured")
	}

	if err := profileService.SetDefault(args[0]); err != nil {
		return fmt.Errorf("failed to set default profile: %w", err)
	}

	cmd.Printf("Default profile set to %s.\n", args[0])
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read without echo
	if f, ok := promptInput.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(promptInput)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
