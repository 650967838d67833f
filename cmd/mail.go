package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/graphmail/internal/graph"
)

func newInboxCmd() *cobra.Command {
	var showIDs bool

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "List the newest messages in the Inbox",
		Args:  cobra.NoArgs,
		RunE: withSession(func(ctx context.Context, s *session, _ []string) error {
			return runInbox(ctx, s, showIDs)
		}),
	}

	cmd.Flags().BoolVar(&showIDs, "ids", false, "Print message IDs for use with reply, move and delete")
	return cmd
}

func runInbox(ctx context.Context, s *session, showIDs bool) error {
	client, err := s.graphClient(ctx)
	if err != nil {
		return err
	}

	messages, err := client.ListInbox(ctx, s.cfg.Top)
	if err != nil {
		return s.reportAPIError("fetching emails", err)
	}
	s.printMessages(messages, showIDs)
	return nil
}

func newAllCmd() *cobra.Command {
	var showIDs bool

	cmd := &cobra.Command{
		Use:   "all",
		Short: "List the newest messages across all folders",
		Args:  cobra.NoArgs,
		RunE: withSession(func(ctx context.Context, s *session, _ []string) error {
			return runAll(ctx, s, showIDs)
		}),
	}

	cmd.Flags().BoolVar(&showIDs, "ids", false, "Print message IDs for use with reply, move and delete")
	return cmd
}

func runAll(ctx context.Context, s *session, showIDs bool) error {
	client, err := s.graphClient(ctx)
	if err != nil {
		return err
	}

	messages, err := client.ListMessages(ctx, s.cfg.Top)
	if err != nil {
		return s.reportAPIError("fetching all emails", err)
	}
	s.printMessages(messages, showIDs)
	return nil
}

func newSearchCmd() *cobra.Command {
	var showIDs bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search all messages",
		Long: `Search all messages for a phrase. Multiple arguments are joined with
spaces and searched as one phrase.`,
		Args: cobra.MinimumNArgs(1),
		RunE: withSession(func(ctx context.Context, s *session, args []string) error {
			return runSearch(ctx, s, strings.Join(args, " "), showIDs)
		}),
	}

	cmd.Flags().BoolVar(&showIDs, "ids", false, "Print message IDs for use with reply, move and delete")
	return cmd
}

func runSearch(ctx context.Context, s *session, query string, showIDs bool) error {
	client, err := s.graphClient(ctx)
	if err != nil {
		return err
	}

	messages, err := client.Search(ctx, query, s.cfg.Top)
	if err != nil {
		return s.reportAPIError("searching emails", err)
	}
	s.printMessages(messages, showIDs)
	return nil
}

func (s *session) printMessages(messages []graph.Message, showIDs bool) {
	for _, msg := range messages {
		if showIDs {
			fmt.Fprintf(s.out, "[%s] ", msg.ID)
		}
		fmt.Fprintf(s.out, "From: %s, Subject: %s\n", msg.SenderAddress(), msg.SubjectOrDefault())
	}
}

func newSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "send <to> <subject> <body> [attachment...]",
		Aliases: []string{"send_attach", "send-attach"},
		Short:   "Send an email, optionally with file attachments",
		Long: `Send an email. <to> may hold several addresses separated by commas.
Files given after the body are attached; each must be smaller than 3MB.`,
		Args: cobra.MinimumNArgs(3),
		RunE: withSession(func(ctx context.Context, s *session, args []string) error {
			return runSend(ctx, s, outgoingFromArgs(args))
		}),
	}
}

func runSend(ctx context.Context, s *session, msg graph.OutgoingMessage) error {
	client, err := s.graphClient(ctx)
	if err != nil {
		return err
	}

	if err := client.SendMail(ctx, msg); err != nil {
		return s.reportAPIError("sending email", err)
	}
	fmt.Fprintln(s.out, "Email sent successfully!")
	return nil
}

func newDraftCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "draft <to> <subject> <body> [attachment...]",
		Short: "Save an email in the Drafts folder",
		Args:  cobra.MinimumNArgs(3),
		RunE: withSession(func(ctx context.Context, s *session, args []string) error {
			return runDraft(ctx, s, outgoingFromArgs(args))
		}),
	}
}

func runDraft(ctx context.Context, s *session, msg graph.OutgoingMessage) error {
	client, err := s.graphClient(ctx)
	if err != nil {
		return err
	}

	draft, err := client.CreateDraft(ctx, msg)
	if err != nil {
		return s.reportAPIError("creating draft", err)
	}
	fmt.Fprintf(s.out, "Draft created: %s\n", draft.ID)
	return nil
}

func outgoingFromArgs(args []string) graph.OutgoingMessage {
	var to []string
	for _, addr := range strings.Split(args[0], ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	return graph.OutgoingMessage{
		To:              to,
		Subject:         args[1],
		Body:            args[2],
		AttachmentPaths: args[3:],
	}
}

func newSendDraftCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "send-draft <draft-id>",
		Aliases: []string{"send_draft"},
		Short:   "Send a previously created draft",
		Args:    cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, s *session, args []string) error {
			return runSendDraft(ctx, s, args[0])
		}),
	}
}

func runSendDraft(ctx context.Context, s *session, draftID string) error {
	client, err := s.graphClient(ctx)
	if err != nil {
		return err
	}

	if err := client.SendDraft(ctx, draftID); err != nil {
		return s.reportAPIError("sending draft", err)
	}
	fmt.Fprintln(s.out, "Draft sent successfully!")
	return nil
}

func newReplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reply <message-id> <body>",
		Short: "Reply to the sender of a message",
		Args:  cobra.ExactArgs(2),
		RunE: withSession(func(ctx context.Context, s *session, args []string) error {
			return runReply(ctx, s, args[0], args[1])
		}),
	}
}

func runReply(ctx context.Context, s *session, messageID, body string) error {
	client, err := s.graphClient(ctx)
	if err != nil {
		return err
	}

	if err := client.Reply(ctx, messageID, body); err != nil {
		return s.reportAPIError("replying", err)
	}
	fmt.Fprintln(s.out, "Reply sent!")
	return nil
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <message-id>",
		Short: "Move a message to Deleted Items",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, s *session, args []string) error {
			return runDelete(ctx, s, args[0])
		}),
	}
}

func runDelete(ctx context.Context, s *session, messageID string) error {
	client, err := s.graphClient(ctx)
	if err != nil {
		return err
	}

	if err := client.DeleteMessage(ctx, messageID); err != nil {
		return s.reportAPIError("deleting email", err)
	}
	fmt.Fprintln(s.out, "Email deleted!")
	return nil
}

func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <message-id> <folder-id>",
		Short: "Move a message to another folder",
		Long: `Move a message to another folder. The folder is a folder ID as printed by
"graphmail folders --ids" or a well-known name such as archive, inbox,
deleteditems or junkemail.`,
		Args: cobra.ExactArgs(2),
		RunE: withSession(func(ctx context.Context, s *session, args []string) error {
			return runMove(ctx, s, args[0], args[1])
		}),
	}
}

func runMove(ctx context.Context, s *session, messageID, folderID string) error {
	client, err := s.graphClient(ctx)
	if err != nil {
		return err
	}

	if _, err := client.MoveMessage(ctx, messageID, folderID); err != nil {
		return s.reportAPIError("moving email", err)
	}
	fmt.Fprintf(s.out, "Email moved to folder %s\n", folderID)
	return nil
}

func newDownloadAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "download-attach <message-id> [dir]",
		Aliases: []string{"download_attach"},
		Short:   "Save the file attachments of a message",
		Long: `Save the file attachments of a message into dir, which defaults to
./attachments and is created when missing.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: withSession(func(ctx context.Context, s *session, args []string) error {
			dir := s.cfg.DownloadDir
			if len(args) == 2 {
				dir = args[1]
			}
			return runDownloadAttach(ctx, s, args[0], dir)
		}),
	}
}

func runDownloadAttach(ctx context.Context, s *session, messageID, dir string) error {
	client, err := s.graphClient(ctx)
	if err != nil {
		return err
	}

	paths, err := client.DownloadAttachments(ctx, messageID, dir)
	for _, path := range paths {
		fmt.Fprintf(s.out, "Downloaded: %s\n", path)
	}
	if err != nil {
		return s.reportAPIError("downloading attachments", err)
	}
	return nil
}

func newCreateFolderCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "create-folder <name>",
		Aliases: []string{"create_folder"},
		Short:   "Create a top-level mail folder",
		Args:    cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, s *session, args []string) error {
			return runCreateFolder(ctx, s, args[0])
		}),
	}
}

func runCreateFolder(ctx context.Context, s *session, name string) error {
	client, err := s.graphClient(ctx)
	if err != nil {
		return err
	}

	if _, err := client.CreateFolder(ctx, name); err != nil {
		return s.reportAPIError("creating folder", err)
	}
	fmt.Fprintf(s.out, "Folder '%s' created!\n", name)
	return nil
}

func newFoldersCmd() *cobra.Command {
	var showIDs bool

	cmd := &cobra.Command{
		Use:   "folders",
		Short: "List top-level mail folders",
		Args:  cobra.NoArgs,
		RunE: withSession(func(ctx context.Context, s *session, _ []string) error {
			return runFolders(ctx, s, showIDs)
		}),
	}

	cmd.Flags().BoolVar(&showIDs, "ids", false, "Print folder IDs for use with move")
	return cmd
}

func runFolders(ctx context.Context, s *session, showIDs bool) error {
	client, err := s.graphClient(ctx)
	if err != nil {
		return err
	}

	folders, err := client.ListFolders(ctx, s.cfg.Top)
	if err != nil {
		return s.reportAPIError("fetching folders", err)
	}
	for _, f := range folders {
		if showIDs {
			fmt.Fprintf(s.out, "[%s] ", f.ID)
		}
		fmt.Fprintf(s.out, "%s (%d items, %d unread)\n", f.DisplayName, f.TotalItemCount, f.UnreadItemCount)
	}
	return nil
}
