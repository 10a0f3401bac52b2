// Package regmap models the register map of a front-end readout chip.
//
// A register map is a declarative YAML document organised as
// chip → block → access category → parameter. Every parameter carries the
// physical register it lives in and where its bits sit inside that register:
//
//	econ:
//	  ALIGNER:
//	    RW:
//	      CONFIG_i2c_config:
//	        register: 0x0380
//	        reg_offset: 0x00
//	        size_byte: 1
//	        param_mask: 0x0f
//	        param_shift: 0
//	        default: 0x3
//
// # Usage
//
//	schema, err := regmap.LoadSchema("reg_maps/econ.yaml", "econ")
//	cfg, err := schema.Apply(overrides...)
//	pairs, err := translator.Translate(cfg)
//
// A Schema is immutable once loaded and is passed explicitly to whoever needs
// it. Configurations produced from it are independent copies that keep the
// document order of blocks, access categories and parameters.
package regmap
