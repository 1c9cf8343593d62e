package reco

import (
	hdf5 "github.com/jmbenlloch/go-hdf5"
)

type RunInfoHDF5 struct {
	run_number int32
	pot        float64
}

type HistInfoHDF5 struct {
	nameStr  [STRLEN]byte
	titleStr [STRLEN]byte
	xlabel   [STRLEN]byte
	ylabel   [STRLEN]byte
	nbins    int32
	xmin     float64
	xmax     float64
}

type HistBinHDF5 struct {
	bin       int32
	low_edge  float64
	content   float64
	bin_error float64
}

type RateHDF5 struct {
	position   int32
	rate       float64
	rate_error float64
}

type BeamStatusHDF5 struct {
	readout_entry int32
	minibuffer    int32
	trigger_ms    uint64
	pot_ms        uint64
	pot           float64
	ok            int32
}

type EfficiencyHDF5 struct {
	p0   float64
	p1   float64
	chi2 float64
}

const STRLEN = 64

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

func openFile(fname string) *hdf5.File {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		panic(err)
	}
	return f
}

func createGroup(file *hdf5.File, groupName string) *hdf5.Group {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		panic(err)
	}
	return g
}

func createTable(group *hdf5.Group, name string, datatype interface{}) *hdf5.Dataset {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	file_space, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		panic(err)
	}

	// create property list
	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		panic(err)
	}

	chunks := []uint{32768}
	plist.SetChunk(chunks)
	plist.SetDeflate(4)

	// create the memory data type
	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		panic(err)
	}

	// create the dataset
	dset, err := group.CreateDatasetWith(name, dtype, file_space, plist)
	if err != nil {
		panic(err)
	}
	return dset
}

func writeEntryToTable[T any](dataset *hdf5.Dataset, data T, rowCounter int) {
	array := []T{data}
	writeArrayToTable(dataset, &array, rowCounter)
}

func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T, rowCounter int) {
	length := uint(len(*data))
	dims := []uint{length}
	dataspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		panic(err)
	}

	// extend
	rowsInFile := uint(rowCounter)
	newsize := []uint{rowsInFile + length}
	dataset.Resize(newsize)
	filespace := dataset.Space()

	start := []uint{rowsInFile}
	count := []uint{length}
	filespace.SelectHyperslab(start, nil, count, nil)

	err = dataset.WriteSubset(data, dataspace, filespace)
	if err != nil {
		panic(err)
	}

	dataspace.Close()
	filespace.Close()
}
