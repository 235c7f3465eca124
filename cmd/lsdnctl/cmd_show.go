package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lsdn-core/lsdn/pkg/cli"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Inspect the object graph described by a topology file",
}

func init() {
	showCmd.AddCommand(showNetCmd, showPhysCmd, showAttachmentCmd, showVirtCmd)
}

type netRow struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	VnetID int    `json:"vnet_id"`
	State  string `json:"state"`
}

var showNetCmd = &cobra.Command{
	Use:   "net",
	Short: "List nets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := requireTopology()
		if err != nil {
			return err
		}
		rows := make([]netRow, 0, len(ctx.Nets()))
		for _, n := range ctx.Nets() {
			rows = append(rows, netRow{
				Name:   n.GetName(),
				Kind:   string(n.Settings().Kind()),
				VnetID: n.VnetID(),
				State:  n.State().String(),
			})
		}
		if app.jsonOutput {
			return printJSON(rows)
		}
		t := cli.NewTable("NAME", "KIND", "VNET_ID", "STATE")
		for _, r := range rows {
			t.Row(r.Name, r.Kind, fmt.Sprint(r.VnetID), r.State)
		}
		t.Flush()
		return nil
	},
}

type physRow struct {
	Name  string `json:"name"`
	Iface string `json:"iface"`
	IP    string `json:"ip"`
	Local bool   `json:"local"`
}

var showPhysCmd = &cobra.Command{
	Use:   "phys",
	Short: "List physes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := requireTopology()
		if err != nil {
			return err
		}
		rows := make([]physRow, 0, len(ctx.Physes()))
		for _, p := range ctx.Physes() {
			rows = append(rows, physRow{
				Name:  p.GetName(),
				Iface: dash(p.Iface()),
				IP:    dash(p.IP()),
				Local: p.IsLocal(),
			})
		}
		if app.jsonOutput {
			return printJSON(rows)
		}
		t := cli.NewTable("NAME", "IFACE", "IP", "LOCAL")
		for _, r := range rows {
			t.Row(r.Name, r.Iface, r.IP, fmt.Sprint(r.Local))
		}
		t.Flush()
		return nil
	},
}

type attachmentRow struct {
	Net      string `json:"net"`
	Phys     string `json:"phys"`
	Explicit bool   `json:"explicit"`
	State    string `json:"state"`
	Virts    int    `json:"virts"`
}

var showAttachmentCmd = &cobra.Command{
	Use:   "attachment",
	Short: "List attachments",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := requireTopology()
		if err != nil {
			return err
		}
		rows := make([]attachmentRow, 0, len(ctx.Attachments()))
		for _, a := range ctx.Attachments() {
			rows = append(rows, attachmentRow{
				Net:      a.Net().GetName(),
				Phys:     a.Phys().GetName(),
				Explicit: a.Explicit(),
				State:    a.State().String(),
				Virts:    len(a.Virts()),
			})
		}
		if app.jsonOutput {
			return printJSON(rows)
		}
		t := cli.NewTable("NET", "PHYS", "EXPLICIT", "STATE", "VIRTS")
		for _, r := range rows {
			t.Row(r.Net, r.Phys, fmt.Sprint(r.Explicit), r.State, fmt.Sprint(r.Virts))
		}
		t.Flush()
		return nil
	},
}

type virtRow struct {
	Name  string `json:"name"`
	Net   string `json:"net"`
	MAC   string `json:"mac"`
	Iface string `json:"iface"`
	Phys  string `json:"phys"`
	State string `json:"state"`
}

var showVirtCmd = &cobra.Command{
	Use:   "virt",
	Short: "List virts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := requireTopology()
		if err != nil {
			return err
		}
		rows := make([]virtRow, 0, len(ctx.Virts()))
		for _, v := range ctx.Virts() {
			physName := ""
			if a := v.Attachment(); a != nil {
				physName = a.Phys().GetName()
			}
			rows = append(rows, virtRow{
				Name:  v.GetName(),
				Net:   v.Net().GetName(),
				MAC:   dash(v.MAC()),
				Iface: dash(v.ConnectedIface()),
				Phys:  dash(physName),
				State: v.State().String(),
			})
		}
		if app.jsonOutput {
			return printJSON(rows)
		}
		t := cli.NewTable("NAME", "NET", "MAC", "IFACE", "PHYS", "STATE")
		for _, r := range rows {
			t.Row(r.Name, r.Net, r.MAC, r.Iface, r.Phys, r.State)
		}
		t.Flush()
		return nil
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
