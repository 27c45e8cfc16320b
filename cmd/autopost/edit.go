package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coopco/autopost/internal/config"
	"github.com/coopco/autopost/internal/editor"
	"github.com/coopco/autopost/internal/profile"
)

// editFlags are the profile fields settable from the command line. Only
// flags the user actually passed are applied on top of the loaded profile.
type editFlags struct {
	rename  string
	token   string
	channel string

	kind        string
	text        []string
	importFile  string
	title       string
	description string
	color       string
	url         string
	file        string

	schedule string
	every    string
	preset   string
	at       string
	day      string
}

func (f *editFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.rename, "as", "", "Save under this profile name")
	fs.StringVar(&f.token, "token", "", "Discord bot token")
	fs.StringVar(&f.channel, "channel", "", "Target channel ID (17-19 digits)")

	fs.StringVar(&f.kind, "kind", "", "Message kind: text, embed or attachment")
	fs.StringArrayVar(&f.text, "text", nil, "Text message; repeat for several (replaces existing)")
	fs.StringVar(&f.importFile, "import", "", "Append one text message per line of this file (- for stdin)")
	fs.StringVar(&f.title, "title", "", "Embed title")
	fs.StringVar(&f.description, "description", "", "Embed description")
	fs.StringVar(&f.color, "color", "", "Embed color (#rrggbb)")
	fs.StringVar(&f.url, "url", "", "Attachment URL")
	fs.StringVar(&f.file, "file", "", "Local file to upload as the attachment")

	fs.StringVar(&f.schedule, "schedule", "", "Schedule mode: interval, cron_simple or cron_advanced")
	fs.StringVar(&f.every, "every", "", "Interval in seconds")
	fs.StringVar(&f.preset, "preset", "", "Cron preset label or expression")
	fs.StringVar(&f.at, "at", "", "Time of day (HH:MM) for cron_advanced")
	fs.StringVar(&f.day, "day", "", "Day-of-week field for cron_advanced (e.g. *, 1-5)")
}

// apply copies the changed flags into the session. Setting a field of a
// message kind or schedule mode selects it unless --kind or --schedule say
// otherwise.
func (f *editFlags) apply(cmd *cobra.Command, sess *editor.Session, presets []config.CronPreset) error {
	changed := cmd.Flags().Changed
	kind := profile.MessageKind(f.kind)
	mode := profile.ScheduleMode(f.schedule)

	var imported string
	if changed("import") {
		text, err := readImport(cmd, f.importFile)
		if err != nil {
			return err
		}
		imported = text
	}

	sess.Edit(func(s *profile.Snapshot) {
		if changed("as") {
			s.Name = f.rename
		}
		if changed("token") {
			s.Credential = f.token
		}
		if changed("channel") {
			s.Channel = f.channel
		}
		if changed("text") {
			s.Text.Entries = append([]string(nil), f.text...)
		}
		if changed("title") {
			s.Embed.Title = f.title
		}
		if changed("description") {
			s.Embed.Description = f.description
		}
		if changed("color") {
			s.Embed.Color = f.color
		}
		if changed("url") {
			s.Attachment.Source = profile.SourceURL
			s.Attachment.URL = f.url
		}
		if changed("every") {
			s.Interval.Seconds = f.every
		}
		if changed("preset") {
			s.CronSimple.Preset = resolvePreset(f.preset, presets)
		}
		if changed("at") {
			s.CronAdvanced.Time = f.at
		}
		if changed("day") {
			s.CronAdvanced.Day = f.day
		}
	})
	if imported != "" {
		sess.ImportText(imported)
	}
	if changed("file") {
		sess.ChooseLocalFile(f.file)
	}

	if kind == "" {
		switch {
		case changed("text") || changed("import"):
			kind = profile.KindText
		case changed("title") || changed("description") || changed("color"):
			kind = profile.KindEmbed
		case changed("url") || changed("file"):
			kind = profile.KindAttachment
		}
	}
	if kind != "" {
		if err := sess.SelectMessageKind(kind); err != nil {
			return err
		}
	}

	if mode == "" {
		switch {
		case changed("every"):
			mode = profile.ModeInterval
		case changed("preset"):
			mode = profile.ModeCronSimple
		case changed("at") || changed("day"):
			mode = profile.ModeCronAdvanced
		}
	}
	if mode != "" {
		if err := sess.SelectScheduleMode(mode); err != nil {
			return err
		}
	}
	return nil
}

func readImport(cmd *cobra.Command, path string) (string, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("failed to open import file: %w", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read import file: %w", err)
	}
	return string(data), nil
}

// resolvePreset maps a preset label to its expression. Anything else is
// taken as an expression.
func resolvePreset(raw string, presets []config.CronPreset) string {
	for _, p := range presets {
		if strings.EqualFold(p.Label, raw) {
			return p.Expression
		}
	}
	return raw
}

// reportValidation prints each field problem on its own line.
func reportValidation(cmd *cobra.Command, err error) error {
	var verr *editor.ValidationError
	if errors.As(err, &verr) {
		for _, fe := range verr.Fields {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s (%s): %s\n", fe.Field, fe.Kind, fe.Message)
		}
	}
	return err
}

func newSaveCmd() *cobra.Command {
	var flags editFlags
	saveCmd := &cobra.Command{
		Use:   "save NAME",
		Short: "Create or update a profile",
		Long: `Load profile NAME (or the defaults when it does not exist yet), apply the
given flags and save it. A local --file is uploaded first.

Examples:
  autopost save news --token T --channel 123456789012345678 --text "Hi" --text "It is {now}"
  autopost save promo --title "Sale" --description "50% off" --color "#ff8800" --preset "Every hour"
  autopost save memes --file ./cat.png --at 09:30 --day 1-5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			sess := editor.New(newClient(cfg))
			if err := sess.Load(cmd.Context(), args[0]); err != nil {
				return err
			}
			if err := flags.apply(cmd, sess, cfg.CronPresets); err != nil {
				return err
			}
			saved, err := sess.Save(cmd.Context())
			if err != nil {
				return reportValidation(cmd, err)
			}
			printf(cmd, "Profile %q saved (%d %s message(s), %s)\n",
				saved.Name, len(saved.Messages), saved.Messages.Kind(), saved.Schedule.Mode())
			return nil
		},
	}
	flags.register(saveCmd)
	return saveCmd
}

func newSendCmd() *cobra.Command {
	var flags editFlags
	sendCmd := &cobra.Command{
		Use:   "send NAME",
		Short: "Send one random message of a profile now",
		Long: `Load profile NAME, apply the given flags and send one of its messages right
away. The profile is not saved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			sess := editor.New(newClient(cfg))
			if err := sess.Load(cmd.Context(), args[0]); err != nil {
				return err
			}
			if err := flags.apply(cmd, sess, cfg.CronPresets); err != nil {
				return err
			}
			if err := sess.SendNow(cmd.Context()); err != nil {
				return reportValidation(cmd, err)
			}
			printf(cmd, "Message sent for profile %q\n", sess.Snapshot().Name)
			return nil
		},
	}
	flags.register(sendCmd)
	return sendCmd
}
