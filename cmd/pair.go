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

	"github.com/spf13/cobra"

	"github.com/notargets/gocontact/InputParameters"
	"github.com/notargets/gocontact/model_problems/ContactPatch"
)

// PairCmd represents the pair command
var PairCmd = &cobra.Command{
	Use:   "pair",
	Short: "Report candidate contact pairs and periodic node partners",
	Long: `
Builds the contact patch mesh from the input file and reports the boundary
pairs automatic pairing proposes, along with the periodic partners of the
left and right sides of each block.

gocontact pair -I input.yaml --distance 0.02`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			ip  *InputParameters.ContactParameters
			err error
		)
		fileName, _ := cmd.Flags().GetString("inputConditionsFile")
		if len(fileName) == 0 {
			fmt.Printf("error: must supply an input parameters file (-I, --inputConditionsFile)\n")
			fmt.Printf("Example File:%s\n", exampleContactFile)
			os.Exit(1)
		}
		if ip, err = readInput(fileName); err != nil {
			panic(err)
		}
		if cmd.Flags().Changed("distance") {
			ip.AutomaticPairingDistance, _ = cmd.Flags().GetFloat64("distance")
		}
		if cmd.Flags().Changed("method") {
			ip.AutomaticPairingMethod, _ = cmd.Flags().GetString("method")
		}
		if err = RunPair(ip); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	},
}

func RunPair(ip *InputParameters.ContactParameters) (err error) {
	// pairing searches the whole mesh
	ip.NumRanks = 1
	var p *ContactPatch.Patch
	if p, err = ContactPatch.NewPatch(ip); err != nil {
		return
	}
	var pairs []ContactPatch.NamedPair
	if pairs, err = p.DetectPairs(); err != nil {
		return
	}
	for _, np := range pairs {
		fmt.Printf("%s\t= [%d, %d]\n", np.Name, np.First, np.Second)
	}
	pm, err := p.PeriodicNodes()
	if err != nil {
		return
	}
	for _, np := range pm {
		fmt.Printf("periodic node %d -> %d\n", np.Node, np.Partner)
	}
	return
}

func init() {
	rootCmd.AddCommand(PairCmd)
	PairCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters")
	PairCmd.Flags().Float64("distance", 0, "pairing distance, overrides automatic_pairing_distance")
	PairCmd.Flags().String("method", "", "node or centroid, overrides automatic_pairing_method")
}
