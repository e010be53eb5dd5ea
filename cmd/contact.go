/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/gocontact/InputParameters"
	"github.com/notargets/gocontact/model_problems/ContactPatch"
)

type ModelContact struct {
	ICFile     string
	Ranks      int
	Verbose    bool
	Profile    string
	Checkpoint string
	Restart    string
}

// ContactCmd represents the contact command
var ContactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Solve the two block contact patch",
	Long: `
Reads the contact parameters from a YAML file and steps the two block
contact patch to the final time, printing the interface state per step.

gocontact contact -I input.yaml -n 2`,
	Run: func(cmd *cobra.Command, args []string) {
		mc := &ModelContact{
			ICFile:     viper.GetString("inputConditionsFile"),
			Ranks:      viper.GetInt("ranks"),
			Verbose:    viper.GetBool("verbose"),
			Profile:    viper.GetString("profile"),
			Checkpoint: viper.GetString("checkpoint"),
			Restart:    viper.GetString("restart"),
		}
		ip := processContactInput(mc)
		if err := RunContact(mc, ip); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	},
}

const exampleContactFile = `
########################################
title: "Frictionless indentation"
model: frictionless # frictionless, coulomb, glued or cohesive
formulation: lm # lm, penalty or augmented_lagrange
lower_elements: [3, 1]
upper_elements: [2, 1]
width: 1
initial_gap: 0.01
foundation_stiffness: 100
edge_stiffness: 10
indentation: 0.05
slide: 0
final_time: 1
dt: 0.25
c: 1000
########################################
`

func processContactInput(mc *ModelContact) (ip *InputParameters.ContactParameters) {
	var err error
	if len(mc.ICFile) == 0 {
		err = fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		fmt.Printf("Example File:%s\n", exampleContactFile)
		os.Exit(1)
	}
	if ip, err = readInput(mc.ICFile); err != nil {
		panic(err)
	}
	mc.apply(ip)
	return
}

func readInput(fileName string) (ip *InputParameters.ContactParameters, err error) {
	var data []byte
	if data, err = os.ReadFile(fileName); err != nil {
		return
	}
	ip = &InputParameters.ContactParameters{}
	err = ip.Parse(data)
	return
}

// apply lets the command line override the input file
func (mc *ModelContact) apply(ip *InputParameters.ContactParameters) {
	if mc.Ranks > 0 {
		ip.NumRanks = mc.Ranks
	}
	if mc.Checkpoint != "" {
		ip.Checkpoint = mc.Checkpoint
	}
	if mc.Restart != "" {
		ip.Restart = mc.Restart
	}
}

func RunContact(mc *ModelContact, ip *InputParameters.ContactParameters) (err error) {
	switch mc.Profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	default:
		return fmt.Errorf("unknown profile %q, have cpu and mem", mc.Profile)
	}
	var p *ContactPatch.Patch
	if p, err = ContactPatch.NewPatch(ip); err != nil {
		return
	}
	ip.Print()
	p.Verbose = mc.Verbose
	var res *ContactPatch.Result
	if res, err = p.Run(); err != nil {
		return
	}
	last := res.Last()
	fmt.Printf("%s: %d active dofs at t = %8.5f\n", p.ConstraintName, last.Active, last.Time)
	return
}

func init() {
	rootCmd.AddCommand(ContactCmd)
	ContactCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- model\n\t- formulation\n\t- dt")
	ContactCmd.Flags().IntP("ranks", "n", 0, "number of ranks, overrides num_ranks")
	ContactCmd.Flags().BoolP("verbose", "v", false, "print the Newton history and the interface state per step")
	ContactCmd.Flags().String("profile", "", "write a cpu or mem profile to the current directory")
	ContactCmd.Flags().String("checkpoint", "", "write the contact state to this file after every step")
	ContactCmd.Flags().String("restart", "", "restart from this checkpoint file")
	for _, name := range []string{"inputConditionsFile", "ranks", "verbose", "profile", "checkpoint", "restart"} {
		if err := viper.BindPFlag(name, ContactCmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}
