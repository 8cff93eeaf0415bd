package cmd

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"
)

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
