// Package chaincfg defines chain configuration parameters: per-network
// genesis blocks, retarget/subsidy constants, and the BIP activation
// registry that maps a block height to the txscript.ScriptFlags in
// force at that height.
//
// Four networks are defined: mainnet, testnet3, regtest, and simnet. Each
// is incompatible with the others (distinct genesis block and magic), so
// callers should keep the active *Params threaded through rather than
// assume a global.
//
//  package main
//
//  import (
//          "flag"
//          "fmt"
//
//          "github.com/btcdecoded/blvm/chaincfg"
//  )
//
//  var testnet = flag.Bool("testnet", false, "operate on the test network")
//
//  func main() {
//          flag.Parse()
//
//          chainParams := chaincfg.MainNetParams()
//          if *testnet {
//                  chainParams = chaincfg.TestNet3Params()
//          }
//
//          fmt.Println(chainParams.Name, chainParams.GenesisHash)
//  }
package chaincfg
